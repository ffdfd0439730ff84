package sweep

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubSubscriptionStore struct {
	downgraded []int64
	err        error
}

func (s *stubSubscriptionStore) DowngradeExpired(_ context.Context, _ time.Time) ([]int64, error) {
	return s.downgraded, s.err
}

type stubNotifier struct {
	notified []int64
	err      error
}

func (s *stubNotifier) NotifySubscriptionExpired(_ context.Context, accountID int64) error {
	if s.err != nil {
		return s.err
	}
	s.notified = append(s.notified, accountID)
	return nil
}

func TestRunNotifiesDowngraded(t *testing.T) {
	store := &stubSubscriptionStore{downgraded: []int64{3, 7}}
	notifier := &stubNotifier{}
	job := New(store, notifier, time.Hour, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.notified) != 2 || notifier.notified[0] != 3 || notifier.notified[1] != 7 {
		t.Fatalf("unexpected notifications: %v", notifier.notified)
	}
}

func TestRunNothingToDo(t *testing.T) {
	job := New(&stubSubscriptionStore{}, &stubNotifier{}, time.Hour, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunStoreErrorPropagates(t *testing.T) {
	store := &stubSubscriptionStore{err: errors.New("db down")}
	job := New(store, &stubNotifier{}, time.Hour, nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunNotifyFailureDoesNotAbort(t *testing.T) {
	store := &stubSubscriptionStore{downgraded: []int64{1, 2}}
	notifier := &stubNotifier{err: errors.New("chat gone")}
	job := New(store, notifier, time.Hour, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("notify failure must not abort the sweep: %v", err)
	}
}
