package lockdown

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sort"
	"sync"
)

const lockStripes = 64

// StatusListener is told about every successful status mutation. A bulk
// cancel names the users whose records it removed.
type StatusListener interface {
	ExamStatusChanged(courseID, username string, finalized bool)
	CourseStatusReset(courseID string, usernames []string)
}

// StatusStore records which users finalized which exam. The repository is
// authoritative. A mutation evicts the cached entry before the durable write
// and refills it afterwards; if the refill fails the entry stays absent and
// the next lookup reads the repository.
//
// A cache fill after a miss holds the key's stripe for reading and mutations
// hold it for writing, so a fill can never overwrite a newer write with the
// value it read before that write.
type StatusStore struct {
	repo     StatusRepository
	cache    StatusCache
	listener StatusListener
	locks    [lockStripes]sync.RWMutex
}

func NewStatusStore(repo StatusRepository, cache StatusCache, listener StatusListener) *StatusStore {
	if cache == nil {
		cache = NoCache{}
	}
	return &StatusStore{repo: repo, cache: cache, listener: listener}
}

func (s *StatusStore) IsFinalized(ctx context.Context, courseID, username string) (bool, error) {
	finalized, ok, err := s.cache.Get(ctx, courseID, username)
	if err != nil {
		log.Printf("exam status cache read %s/%s: %v", courseID, username, err)
	} else if ok {
		return finalized, nil
	}

	l := s.stripe(courseID, username)
	l.RLock()
	defer l.RUnlock()
	finalized, err = s.repo.Exists(ctx, courseID, username)
	if err != nil {
		return false, storeErr(err)
	}
	s.fill(ctx, courseID, username, finalized)
	return finalized, nil
}

// Finalize upserts the record with the secret in effect now. Finalizing twice
// just overwrites the snapshot.
func (s *StatusStore) Finalize(ctx context.Context, courseID, username, secret string) error {
	err := s.withKey(courseID, username, func() error {
		if err := s.evict(ctx, courseID, username); err != nil {
			return err
		}
		if err := s.repo.Upsert(ctx, courseID, username, secret); err != nil {
			return storeErr(err)
		}
		s.fill(ctx, courseID, username, true)
		return nil
	})
	if err != nil {
		return err
	}
	if s.listener != nil {
		s.listener.ExamStatusChanged(courseID, username, true)
	}
	return nil
}

func (s *StatusStore) FinalizeAll(ctx context.Context, courseID string, usernames []string, secret string) error {
	for _, username := range usernames {
		if err := s.Finalize(ctx, courseID, username, secret); err != nil {
			return fmt.Errorf("finalize %s: %w", username, err)
		}
	}
	return nil
}

func (s *StatusStore) Cancel(ctx context.Context, courseID, username string) error {
	err := s.withKey(courseID, username, func() error {
		if err := s.evict(ctx, courseID, username); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, courseID, username); err != nil {
			return storeErr(err)
		}
		s.fill(ctx, courseID, username, false)
		return nil
	})
	if err != nil {
		return err
	}
	if s.listener != nil {
		s.listener.ExamStatusChanged(courseID, username, false)
	}
	return nil
}

// CancelAll removes every record of the course. Cached entries of the course
// are dropped before the delete and again after it.
func (s *StatusStore) CancelAll(ctx context.Context, courseID string) error {
	var cancelled []string
	err := s.withAll(func() error {
		recs, err := s.repo.ListByCourse(ctx, courseID)
		if err != nil {
			return storeErr(err)
		}
		if err := s.cache.InvalidateCourse(ctx, courseID); err != nil {
			return fmt.Errorf("%w: cache invalidate: %v", ErrStoreUnavailable, err)
		}
		if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
			return storeErr(err)
		}
		if err := s.cache.InvalidateCourse(ctx, courseID); err != nil {
			log.Printf("exam status cache invalidate %s: %v", courseID, err)
		}
		for _, rec := range recs {
			cancelled = append(cancelled, rec.Username)
		}
		sort.Strings(cancelled)
		return nil
	})
	if err != nil {
		return err
	}
	if s.listener != nil {
		s.listener.CourseStatusReset(courseID, cancelled)
	}
	return nil
}

// FinishedExams lists the user's records ordered by course ID.
func (s *StatusStore) FinishedExams(ctx context.Context, username string) ([]ExamStatusRecord, error) {
	recs, err := s.repo.ListByUser(ctx, username)
	if err != nil {
		return nil, storeErr(err)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CourseID < recs[j].CourseID })
	return recs, nil
}

func (s *StatusStore) CourseRecords(ctx context.Context, courseID string) ([]ExamStatusRecord, error) {
	recs, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, storeErr(err)
	}
	return recs, nil
}

// evict drops the cached entry ahead of a durable write. A failure aborts the
// mutation, since a refill after the write is only best effort.
func (s *StatusStore) evict(ctx context.Context, courseID, username string) error {
	if err := s.cache.Delete(ctx, courseID, username); err != nil {
		return fmt.Errorf("%w: cache evict: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *StatusStore) fill(ctx context.Context, courseID, username string, finalized bool) {
	if err := s.cache.Set(ctx, courseID, username, finalized); err != nil {
		log.Printf("exam status cache fill %s/%s: %v", courseID, username, err)
	}
}

func (s *StatusStore) stripe(courseID, username string) *sync.RWMutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(courseID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(username))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *StatusStore) withKey(courseID, username string, fn func() error) error {
	l := s.stripe(courseID, username)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// withAll takes every stripe in index order.
func (s *StatusStore) withAll(fn func() error) error {
	for i := range s.locks {
		s.locks[i].Lock()
	}
	defer func() {
		for i := range s.locks {
			s.locks[i].Unlock()
		}
	}()
	return fn()
}
