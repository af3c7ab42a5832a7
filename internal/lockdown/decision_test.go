package lockdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func activeConfig(secret string) CourseExamConfig {
	return CourseExamConfig{Active: true, Password: "p1", LockdownSecret: secret}
}

func TestDecideActiveExam(t *testing.T) {
	ctx := context.Background()
	cfg := activeConfig("s1")

	cases := []struct {
		name      string
		id        RequestIdentity
		finalized bool
		want      VerdictKind
		reason    error
	}{
		{"valid hash", sebIdentity("alice", testPath, "s1"), false, Allow, nil},
		{"hash from other secret", sebIdentity("alice", testPath, "s2"), false, Deny, ErrFingerprintMismatch},
		{"hash for other page", RequestIdentity{Username: "alice", HomeURL: testHome, RequestPath: testPath, SuppliedFingerprint: Fingerprint(testHome, "/courses", "s1")}, false, Deny, ErrFingerprintMismatch},
		{"no SEB", RequestIdentity{Username: "alice", HomeURL: testHome, RequestPath: testPath}, false, Deny, ErrFingerprintMismatch},
		{"finalized", sebIdentity("alice", testPath, "s1"), true, Deny, ErrAlreadyFinalized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			if tc.finalized {
				require.NoError(t, env.engine.Status.Finalize(ctx, "algo", "alice", "s1"))
			}
			v, err := env.engine.Decide(ctx, cfg, "algo", tc.id)
			require.NoError(t, err)
			require.Equal(t, tc.want, v.Kind)
			if tc.reason != nil {
				require.ErrorIs(t, v.Reason, tc.reason)
			}
		})
	}
}

func TestDecideNeverAllowsFinalizedUserWhileActive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	require.NoError(t, env.engine.Status.Finalize(ctx, "algo", "alice", "s1"))

	fingerprints := []string{"", "junk", Fingerprint(testHome, testPath, "s1"), Fingerprint(testHome, testPath, "s2")}
	for _, secret := range []string{"s1", ""} {
		for _, fp := range fingerprints {
			id := RequestIdentity{Username: "alice", HomeURL: testHome, RequestPath: testPath, SuppliedFingerprint: fp}
			v, err := env.engine.Decide(ctx, activeConfig(secret), "algo", id)
			require.NoError(t, err)
			require.NotEqual(t, Allow, v.Kind, "secret=%q fp=%q", secret, fp)
		}
	}
}

func TestDecideNoSecretNoHeaderIsAllowed(t *testing.T) {
	env := newTestEnv()
	id := RequestIdentity{Username: "alice", HomeURL: testHome, RequestPath: testPath}
	v, err := env.engine.Decide(context.Background(), activeConfig(""), "algo", id)
	require.NoError(t, err)
	require.Equal(t, Allow, v.Kind)
}

func TestDecideInactiveWithoutSEBIsAllowed(t *testing.T) {
	env := newTestEnv()
	env.repo.err = errBackend
	id := RequestIdentity{Username: "alice", HomeURL: testHome, RequestPath: testPath}
	v, err := env.engine.Decide(context.Background(), CourseExamConfig{}, "algo", id)
	require.NoError(t, err)
	require.Equal(t, Allow, v.Kind)
}

func TestDecideStoreOutageIsAnError(t *testing.T) {
	env := newTestEnv()
	env.repo.err = errBackend
	_, err := env.engine.Decide(context.Background(), activeConfig("s1"), "algo", sebIdentity("alice", testPath, "s1"))
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRedirectToFinishedExam(t *testing.T) {
	ctx := context.Background()

	t.Run("finished exam still active", func(t *testing.T) {
		env := newTestEnv()
		env.configs.set("algo", activeConfig("sA"))
		env.configs.set("intro", CourseExamConfig{})
		require.NoError(t, env.engine.Status.Finalize(ctx, "algo", "alice", "sA"))

		v, err := env.engine.Decide(ctx, CourseExamConfig{}, "intro", sebIdentity("alice", "/course/intro", "sA"))
		require.NoError(t, err)
		require.Equal(t, Redirect, v.Kind)
		require.Equal(t, "/exam/algo", v.Location)
	})

	t.Run("finished exam no longer active", func(t *testing.T) {
		env := newTestEnv()
		env.configs.set("A", CourseExamConfig{Active: false, LockdownSecret: "sA"})
		env.configs.set("B", activeConfig("sB"))
		env.configs.set("C", CourseExamConfig{})
		require.NoError(t, env.engine.Status.Finalize(ctx, "A", "alice", "sA"))

		for _, secret := range []string{"sA", "sB"} {
			v, err := env.engine.Decide(ctx, CourseExamConfig{}, "C", sebIdentity("alice", "/course/C", secret))
			require.NoError(t, err)
			require.Equal(t, Allow, v.Kind, secret)
		}
	})

	t.Run("staff are not sent back", func(t *testing.T) {
		env := newTestEnv()
		env.configs.set("algo", activeConfig("sA"))
		env.dir.add("algo", "tutor", true)
		require.NoError(t, env.engine.Status.Finalize(ctx, "algo", "tutor", "sA"))

		v, err := env.engine.RedirectToFinishedExam(ctx, sebIdentity("tutor", "/courses", "sA"))
		require.NoError(t, err)
		require.Equal(t, Allow, v.Kind)
	})

	t.Run("deleted course is skipped", func(t *testing.T) {
		env := newTestEnv()
		env.configs.set("db", activeConfig("sA"))
		require.NoError(t, env.engine.Status.Finalize(ctx, "algo", "alice", "sA"))
		require.NoError(t, env.engine.Status.Finalize(ctx, "db", "alice", "sA"))

		v, err := env.engine.RedirectToFinishedExam(ctx, sebIdentity("alice", "/courses", "sA"))
		require.NoError(t, err)
		require.Equal(t, "/exam/db", v.Location)
	})

	t.Run("empty stored secret never matches", func(t *testing.T) {
		env := newTestEnv()
		env.configs.set("algo", activeConfig(""))
		require.NoError(t, env.engine.Status.Finalize(ctx, "algo", "alice", ""))

		v, err := env.engine.RedirectToFinishedExam(ctx, sebIdentity("alice", "/courses", "anything"))
		require.NoError(t, err)
		require.Equal(t, Allow, v.Kind)
	})
}
