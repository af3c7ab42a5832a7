package lockdown

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

const (
	testHome = "https://exam.example.org"
	testPath = "/course/algo"
)

var errBackend = errors.New("connection refused")

type fakeConfigs struct {
	mu   sync.Mutex
	cfgs map[string]CourseExamConfig
	err  error
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{cfgs: map[string]CourseExamConfig{}}
}

func (f *fakeConfigs) GetConfig(ctx context.Context, courseID string) (CourseExamConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return CourseExamConfig{}, f.err
	}
	cfg, ok := f.cfgs[courseID]
	if !ok {
		return CourseExamConfig{}, ErrCourseNotFound
	}
	return cfg, nil
}

func (f *fakeConfigs) PutConfig(ctx context.Context, courseID string, cfg CourseExamConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.cfgs[courseID]; !ok {
		return ErrCourseNotFound
	}
	f.cfgs[courseID] = cfg
	return nil
}

// ListCourseIDs returns map order on purpose.
func (f *fakeConfigs) ListCourseIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0, len(f.cfgs))
	for id := range f.cfgs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeConfigs) set(courseID string, cfg CourseExamConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfgs[courseID] = cfg
}

type statusKey struct{ course, user string }

type fakeRepo struct {
	mu          sync.Mutex
	recs        map[statusKey]ExamStatusRecord
	err         error
	existsCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{recs: map[statusKey]ExamStatusRecord{}}
}

func (f *fakeRepo) Upsert(ctx context.Context, courseID, username, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recs[statusKey{courseID, username}] = ExamStatusRecord{
		CourseID:                     courseID,
		Username:                     username,
		LockdownSecretAtFinalization: secret,
		FinalizedAt:                  time.Now(),
	}
	return nil
}

func (f *fakeRepo) Exists(ctx context.Context, courseID, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.recs[statusKey{courseID, username}]
	return ok, nil
}

func (f *fakeRepo) Delete(ctx context.Context, courseID, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.recs, statusKey{courseID, username})
	return nil
}

func (f *fakeRepo) DeleteCourse(ctx context.Context, courseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for k := range f.recs {
		if k.course == courseID {
			delete(f.recs, k)
		}
	}
	return nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, username string) ([]ExamStatusRecord, error) {
	return f.list(func(k statusKey) bool { return k.user == username })
}

func (f *fakeRepo) ListByCourse(ctx context.Context, courseID string) ([]ExamStatusRecord, error) {
	return f.list(func(k statusKey) bool { return k.course == courseID })
}

func (f *fakeRepo) list(match func(statusKey) bool) ([]ExamStatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []ExamStatusRecord
	for k, rec := range f.recs {
		if match(k) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRepo) has(courseID, username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.recs[statusKey{courseID, username}]
	return ok
}

func (f *fakeRepo) exists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existsCalls
}

// fakeDirectory maps course -> username -> staff.
type fakeDirectory struct {
	mu         sync.Mutex
	members    map[string]map[string]bool
	admins     map[string]bool
	registered []string
	err        error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{members: map[string]map[string]bool{}, admins: map[string]bool{}}
}

func (f *fakeDirectory) add(courseID, username string, staff bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[courseID] == nil {
		f.members[courseID] = map[string]bool{}
	}
	f.members[courseID][username] = staff
}

func (f *fakeDirectory) RegisteredUsers(ctx context.Context, courseID string, includeStaff bool) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for user, staff := range f.members[courseID] {
		if staff && !includeStaff {
			continue
		}
		out = append(out, user)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeDirectory) IsStaff(ctx context.Context, courseID, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.admins[username] || f.members[courseID][username], nil
}

func (f *fakeDirectory) IsRegistered(ctx context.Context, courseID, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.members[courseID][username]
	return ok, nil
}

func (f *fakeDirectory) Register(ctx context.Context, courseID, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.members[courseID] == nil {
		f.members[courseID] = map[string]bool{}
	}
	f.members[courseID][username] = false
	f.registered = append(f.registered, courseID+"/"+username)
	return nil
}

type recordingListener struct {
	mu        sync.Mutex
	changes   []string
	resets    []string
	resetUser map[string][]string
}

func (l *recordingListener) ExamStatusChanged(courseID, username string, finalized bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := "cancelled"
	if finalized {
		state = "finalized"
	}
	l.changes = append(l.changes, courseID+"/"+username+":"+state)
}

func (l *recordingListener) CourseStatusReset(courseID string, usernames []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets = append(l.resets, courseID)
	if l.resetUser == nil {
		l.resetUser = map[string][]string{}
	}
	l.resetUser[courseID] = usernames
}

type brokenCache struct{ err error }

func (b brokenCache) Get(ctx context.Context, courseID, username string) (bool, bool, error) {
	return false, false, b.err
}

func (b brokenCache) Set(ctx context.Context, courseID, username string, finalized bool) error {
	return b.err
}

func (b brokenCache) Delete(ctx context.Context, courseID, username string) error {
	return b.err
}

func (b brokenCache) InvalidateCourse(ctx context.Context, courseID string) error { return b.err }

// flakyCache is a MemoryCache whose next failSets writes fail, and whose
// invalidation number failInvalidateOn (counting from 1) fails.
type flakyCache struct {
	*MemoryCache
	mu               sync.Mutex
	failSets         int
	invalidates      int
	failInvalidateOn int
}

func (f *flakyCache) Set(ctx context.Context, courseID, username string, finalized bool) error {
	f.mu.Lock()
	if f.failSets > 0 {
		f.failSets--
		f.mu.Unlock()
		return errBackend
	}
	f.mu.Unlock()
	return f.MemoryCache.Set(ctx, courseID, username, finalized)
}

func (f *flakyCache) InvalidateCourse(ctx context.Context, courseID string) error {
	f.mu.Lock()
	f.invalidates++
	fail := f.invalidates == f.failInvalidateOn
	f.mu.Unlock()
	if fail {
		return errBackend
	}
	return f.MemoryCache.InvalidateCourse(ctx, courseID)
}

type testEnv struct {
	engine   *Engine
	configs  *fakeConfigs
	repo     *fakeRepo
	dir      *fakeDirectory
	cache    *MemoryCache
	listener *recordingListener
}

func newTestEnv() *testEnv {
	env := &testEnv{
		configs:  newFakeConfigs(),
		repo:     newFakeRepo(),
		dir:      newFakeDirectory(),
		cache:    NewMemoryCache(),
		listener: &recordingListener{},
	}
	env.engine = NewEngine(env.configs, NewStatusStore(env.repo, env.cache, env.listener), env.dir)
	return env
}

// sebIdentity is a student request from a SEB configured with secret.
func sebIdentity(username, path, secret string) RequestIdentity {
	return RequestIdentity{
		Username:            username,
		HomeURL:             testHome,
		RequestPath:         path,
		SuppliedFingerprint: Fingerprint(testHome, path, secret),
	}
}
