package lockdown

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeCancelRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status

	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
	finalized, err := store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.True(t, finalized)

	require.NoError(t, store.Cancel(ctx, "algo", "alice"))
	finalized, err = store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.False(t, finalized)
	require.False(t, env.repo.has("algo", "alice"))
}

func TestFinalizeAllThenCancelAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status

	require.NoError(t, store.FinalizeAll(ctx, "algo", []string{"alice", "bob"}, "s1"))
	for _, u := range []string{"alice", "bob"} {
		finalized, err := store.IsFinalized(ctx, "algo", u)
		require.NoError(t, err)
		require.True(t, finalized, u)
	}

	require.NoError(t, store.CancelAll(ctx, "algo"))
	for _, u := range []string{"alice", "bob"} {
		finalized, err := store.IsFinalized(ctx, "algo", u)
		require.NoError(t, err)
		require.False(t, finalized, u)
	}
	require.Equal(t, []string{"algo"}, env.listener.resets)
	require.Equal(t, []string{"alice", "bob"}, env.listener.resetUser["algo"])
}

func TestCacheAgreesWithDurableStateAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status

	check := func(want bool) {
		t.Helper()
		cached, ok, err := env.cache.Get(ctx, "algo", "alice")
		require.NoError(t, err)
		if ok {
			require.Equal(t, want, cached)
		}
		require.Equal(t, want, env.repo.has("algo", "alice"))
	}

	// Warm the cache with "not finalized".
	_, err := store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	check(false)

	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
	check(true)
	require.NoError(t, store.Cancel(ctx, "algo", "alice"))
	check(false)
	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
	check(true)
	require.NoError(t, store.CancelAll(ctx, "algo"))
	check(false)
}

func TestIsFinalizedServesRepeatLookupsFromCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status

	for i := 0; i < 5; i++ {
		_, err := store.IsFinalized(ctx, "algo", "alice")
		require.NoError(t, err)
	}
	require.Equal(t, 1, env.repo.exists())

	require.NoError(t, store.CancelAll(ctx, "algo"))
	_, err := store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.Equal(t, 2, env.repo.exists())
}

func TestStoreFailureIsNotAGuess(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.repo.err = errBackend
	store := env.engine.Status

	_, err := store.IsFinalized(ctx, "algo", "alice")
	require.ErrorIs(t, err, ErrStoreUnavailable)

	require.ErrorIs(t, store.Finalize(ctx, "algo", "alice", "s1"), ErrStoreUnavailable)
	require.ErrorIs(t, store.Cancel(ctx, "algo", "alice"), ErrStoreUnavailable)
	require.ErrorIs(t, store.CancelAll(ctx, "algo"), ErrStoreUnavailable)
	require.Empty(t, env.listener.changes)
	require.Empty(t, env.listener.resets)

	_, ok, err := env.cache.Get(ctx, "algo", "alice")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheEvictFailureAbortsBeforeDurableWrite(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := NewStatusStore(repo, brokenCache{err: errBackend}, nil)

	require.ErrorIs(t, store.Finalize(ctx, "algo", "alice", "s1"), ErrStoreUnavailable)
	require.False(t, repo.has("algo", "alice"))

	require.NoError(t, repo.Upsert(ctx, "algo", "bob", "s1"))
	require.ErrorIs(t, store.Cancel(ctx, "algo", "bob"), ErrStoreUnavailable)
	require.True(t, repo.has("algo", "bob"))
	require.ErrorIs(t, store.CancelAll(ctx, "algo"), ErrStoreUnavailable)
	require.True(t, repo.has("algo", "bob"))
}

func TestFailedRefillAfterFinalizeStillDenies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	cache := &flakyCache{MemoryCache: NewMemoryCache()}
	env.engine.Status = NewStatusStore(env.repo, cache, env.listener)
	cfg := activeConfig("s1")
	id := sebIdentity("alice", testPath, "s1")

	v, err := env.engine.Decide(ctx, cfg, "algo", id)
	require.NoError(t, err)
	require.Equal(t, Allow, v.Kind)
	_, ok, err := cache.Get(ctx, "algo", "alice")
	require.NoError(t, err)
	require.True(t, ok)

	cache.failSets = 1
	require.NoError(t, env.engine.Status.Finalize(ctx, "algo", "alice", "s1"))
	require.True(t, env.repo.has("algo", "alice"))

	finalized, err := env.engine.Status.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.True(t, finalized)
	v, err = env.engine.Decide(ctx, cfg, "algo", id)
	require.NoError(t, err)
	require.Equal(t, Deny, v.Kind)
	require.ErrorIs(t, v.Reason, ErrAlreadyFinalized)
}

func TestFailedRefillAfterCancelReadsRepository(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := &flakyCache{MemoryCache: NewMemoryCache()}
	store := NewStatusStore(repo, cache, nil)

	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
	cache.failSets = 1
	require.NoError(t, store.Cancel(ctx, "algo", "alice"))

	finalized, err := store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.False(t, finalized)
}

func TestCancelAllInvalidationFailures(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := &flakyCache{MemoryCache: NewMemoryCache()}
	store := NewStatusStore(repo, cache, nil)

	// Invalidation before the delete fails: nothing is removed.
	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
	cache.failInvalidateOn = 1
	require.ErrorIs(t, store.CancelAll(ctx, "algo"), ErrStoreUnavailable)
	require.True(t, repo.has("algo", "alice"))
	finalized, err := store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.True(t, finalized)

	// Invalidation after the delete fails: the delete stands and lookups
	// see it.
	cache.failInvalidateOn = cache.invalidates + 2
	require.NoError(t, store.CancelAll(ctx, "algo"))
	require.False(t, repo.has("algo", "alice"))
	finalized, err = store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.False(t, finalized)
}

func TestCacheReadFailureFallsThroughToRepository(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	require.NoError(t, repo.Upsert(ctx, "algo", "alice", "s1"))
	store := NewStatusStore(repo, brokenCache{err: errBackend}, nil)

	finalized, err := store.IsFinalized(ctx, "algo", "alice")
	require.NoError(t, err)
	require.True(t, finalized)
}

func TestNilCacheHitsRepositoryEveryTime(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := NewStatusStore(repo, nil, nil)
	for i := 0; i < 3; i++ {
		_, err := store.IsFinalized(ctx, "algo", "alice")
		require.NoError(t, err)
	}
	require.Equal(t, 3, repo.exists())
}

func TestListenerSeesEachMutation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status

	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
	require.NoError(t, store.Cancel(ctx, "algo", "alice"))
	require.Equal(t, []string{"algo/alice:finalized", "algo/alice:cancelled"}, env.listener.changes)
}

func TestFinalizeOverwritesSecretSnapshot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status

	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
	require.NoError(t, store.Finalize(ctx, "algo", "alice", "s2"))
	recs, err := store.FinishedExams(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "s2", recs[0].LockdownSecretAtFinalization)
}

func TestFinishedExamsOrderedByCourse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status
	for _, course := range []string{"net", "algo", "db"} {
		require.NoError(t, store.Finalize(ctx, course, "alice", "s"))
	}
	recs, err := store.FinishedExams(ctx, "alice")
	require.NoError(t, err)
	var got []string
	for _, r := range recs {
		got = append(got, r.CourseID)
	}
	require.Equal(t, []string{"algo", "db", "net"}, got)
}

func TestConcurrentFinalizeAndLookup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	store := env.engine.Status

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		user := fmt.Sprintf("student%02d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Finalize(ctx, "algo", user, "s1"))
		}()
		go func() {
			defer wg.Done()
			_, err := store.IsFinalized(ctx, "algo", user)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		finalized, err := store.IsFinalized(ctx, "algo", fmt.Sprintf("student%02d", i))
		require.NoError(t, err)
		require.True(t, finalized)
	}
}

func TestLateFillDoesNotOverwriteFinalize(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 200; round++ {
		env := newTestEnv()
		store := env.engine.Status
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.IsFinalized(ctx, "algo", "alice")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Finalize(ctx, "algo", "alice", "s1"))
		}()
		wg.Wait()

		finalized, err := store.IsFinalized(ctx, "algo", "alice")
		require.NoError(t, err)
		require.True(t, finalized, "round %d", round)
	}
}
