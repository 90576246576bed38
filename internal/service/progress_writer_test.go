package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"manara/internal/model"
	"manara/internal/quiz"
)

// fakeProgressRepo records merges in order and can be told to fail
type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[string]*model.UserProgress
	merges  []*quiz.Patch
	failing bool
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*model.UserProgress)}
}

func (r *fakeProgressRepo) Get(ctx context.Context, userID string) (*model.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeProgressRepo) Merge(ctx context.Context, patch *quiz.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("write refused")
	}
	r.merges = append(r.merges, patch)

	rec, ok := r.records[patch.UserID]
	if !ok {
		rec = model.NewUserProgress(patch.UserID)
		r.records[patch.UserID] = rec
	}
	if patch.Score != nil {
		rec.ChallengeScore = *patch.Score
	}
	if patch.Completed != nil {
		rec.CompletedChallenges = patch.Completed
	}
	for k, v := range patch.Repeats {
		if rec.QuestionsRepeatCount == nil {
			rec.QuestionsRepeatCount = make(map[string]int)
		}
		rec.QuestionsRepeatCount[k] = v
	}
	return nil
}

func (r *fakeProgressRepo) TopByScore(ctx context.Context, limit int) ([]*model.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.UserProgress, 0, len(r.records))
	for _, rec := range r.records {
		if rec.ChallengeScore > 0 {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) mergeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.merges)
}

func (r *fakeProgressRepo) setFailing(failing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = failing
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestProgressWriterAcksInOrder(t *testing.T) {
	repo := newFakeProgressRepo()
	writer := NewProgressWriter(repo, 8)
	defer writer.Close()

	var mu sync.Mutex
	var acked []int
	score := func(n int) *quiz.Patch {
		v := n
		return &quiz.Patch{UserID: "u_1", Score: &v}
	}
	for i := 1; i <= 3; i++ {
		n := i
		err := writer.Enqueue(score(n), func(err error) {
			if err != nil {
				t.Errorf("unexpected ack error: %v", err)
			}
			mu.Lock()
			acked = append(acked, n)
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(acked) == 3
	})
	mu.Lock()
	defer mu.Unlock()
	for i, n := range acked {
		if n != i+1 {
			t.Fatalf("acks out of order: %v", acked)
		}
	}
	if got := repo.mergeCount(); got != 3 {
		t.Fatalf("expected 3 merges, got %d", got)
	}
}

func TestProgressWriterReportsFailureWithoutRetry(t *testing.T) {
	repo := newFakeProgressRepo()
	repo.setFailing(true)
	writer := NewProgressWriter(repo, 8)
	defer writer.Close()

	var mu sync.Mutex
	var ackErr error
	done := false
	v := 5
	err := writer.Enqueue(&quiz.Patch{UserID: "u_1", Score: &v}, func(err error) {
		mu.Lock()
		ackErr = err
		done = true
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return done
	})
	mu.Lock()
	defer mu.Unlock()
	if ackErr == nil {
		t.Fatal("expected ack to carry the write error")
	}
	if got := repo.mergeCount(); got != 0 {
		t.Fatalf("failed write must not be recorded, got %d merges", got)
	}
}

func TestProgressWriterRejectsAfterClose(t *testing.T) {
	repo := newFakeProgressRepo()
	writer := NewProgressWriter(repo, 8)
	writer.Close()

	v := 1
	if err := writer.Enqueue(&quiz.Patch{UserID: "u_1", Score: &v}, nil); !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("expected ErrWriterClosed, got %v", err)
	}
}
