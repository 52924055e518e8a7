package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ichad17/retro-configurator/internal/domain"
)

func TestCleanupWorker_PurgeDrainsInBatches(t *testing.T) {
	t.Parallel()

	records := &fakeRecordStore{deleteResults: []int{2, 2, 1}}

	worker := NewCleanupWorker(records, WithBatchSize(2))

	deleted, err := worker.Purge(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	if deleted != 5 {
		t.Fatalf("deleted total = %d, want 5", deleted)
	}
	// Две полных порции и одна неполная, останавливающая цикл.
	if calls := records.calls(); calls != 3 {
		t.Fatalf("delete calls = %d, want 3", calls)
	}
}

func TestCleanupWorker_PurgeStopsOnRepositoryError(t *testing.T) {
	t.Parallel()

	records := &fakeRecordStore{deleteErrors: []error{errors.New("boom")}}

	worker := NewCleanupWorker(records, WithBatchSize(10))

	deleted, err := worker.Purge(context.Background(), time.Now().UTC())
	if err == nil {
		t.Fatal("expected purge error")
	}
	if deleted != 0 {
		t.Fatalf("deleted total = %d, want 0", deleted)
	}
}

func TestCleanupWorker_PurgeHonorsContextCancel(t *testing.T) {
	t.Parallel()

	records := &fakeRecordStore{deleteResults: []int{10, 10, 10}}

	worker := NewCleanupWorker(records, WithBatchSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := worker.Purge(ctx, time.Now().UTC()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls := records.calls(); calls != 0 {
		t.Fatalf("delete calls = %d, want 0 after early cancel", calls)
	}
}

func TestCleanupWorker_RunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	records := &fakeRecordStore{deleteResults: []int{0, 0, 0}}

	worker := NewCleanupWorker(
		records,
		WithInterval(5*time.Millisecond),
		WithBatchSize(10),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}

	if calls := records.calls(); calls == 0 {
		t.Fatal("expected cleanup to run at least once")
	}
}

type fakeRecordStore struct {
	mu sync.Mutex

	deleteResults []int
	deleteErrors  []error
	callCount     int
}

func (s *fakeRecordStore) CreateProcessing(string, string, time.Time) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *fakeRecordStore) Get(string) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *fakeRecordStore) MarkDone(string, []byte, int) error {
	panic("not implemented")
}

func (s *fakeRecordStore) MarkFailed(string, []byte, int) error {
	panic("not implemented")
}

func (s *fakeRecordStore) DeleteExpired(_ time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++

	if len(s.deleteErrors) > 0 {
		err := s.deleteErrors[0]
		s.deleteErrors = s.deleteErrors[1:]
		if err != nil {
			return 0, err
		}
	}

	if len(s.deleteResults) == 0 {
		return 0, nil
	}
	result := s.deleteResults[0]
	s.deleteResults = s.deleteResults[1:]
	return result, nil
}

func (s *fakeRecordStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

var _ domain.IdempotencyRepository = (*fakeRecordStore)(nil)
