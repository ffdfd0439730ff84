package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/telegram"
)

type stubAccountStore struct {
	accounts    map[int64]model.Account
	reportCount int
	blocks      []enums.BlockReason
	states      []enums.GlobalState
	cleared     []int64
}

func (s *stubAccountStore) GetByID(ctx context.Context, accountID int64) (model.Account, error) {
	acc, ok := s.accounts[accountID]
	if !ok {
		return model.Account{}, errors.New("account not found")
	}
	return acc, nil
}

func (s *stubAccountStore) SetGlobalState(ctx context.Context, accountID int64, state enums.GlobalState) error {
	s.states = append(s.states, state)
	acc := s.accounts[accountID]
	acc.GlobalState = state
	s.accounts[accountID] = acc
	return nil
}

func (s *stubAccountStore) SetBlock(ctx context.Context, accountID int64, state enums.GlobalState, reason enums.BlockReason, at time.Time) error {
	s.blocks = append(s.blocks, reason)
	acc := s.accounts[accountID]
	acc.GlobalState = state
	acc.BlockReason = reason
	s.accounts[accountID] = acc
	return nil
}

func (s *stubAccountStore) ClearBlock(ctx context.Context, accountID int64, state enums.GlobalState) error {
	s.cleared = append(s.cleared, accountID)
	s.reportCount = 0
	acc := s.accounts[accountID]
	acc.GlobalState = state
	acc.BlockReason = enums.BlockReasonNone
	s.accounts[accountID] = acc
	return nil
}

func (s *stubAccountStore) AddReport(ctx context.Context, accountID, reporterID int64, reason enums.ReportReason) (int, error) {
	s.reportCount++
	return s.reportCount, nil
}

type stubProfileStore struct {
	active map[int64]bool
}

func (s *stubProfileStore) Get(ctx context.Context, accountID int64) (model.Profile, error) {
	return model.Profile{AccountID: accountID}, nil
}

func (s *stubProfileStore) SetActive(ctx context.Context, accountID int64, active bool) error {
	if s.active == nil {
		s.active = map[int64]bool{}
	}
	s.active[accountID] = active
	return nil
}

type stubPhotoStore struct {
	resets []int64
}

func (s *stubPhotoStore) ResetRejectCount(ctx context.Context, accountID int64) error {
	s.resets = append(s.resets, accountID)
	return nil
}

type sentMessage struct {
	accountID int64
	text      string
	photoURL  string
}

type stubNotifier struct {
	admin []sentMessage
	users []sentMessage
}

func (s *stubNotifier) NotifyAdmin(ctx context.Context, text, photoURL string, keyboard *telegram.Keyboard) error {
	s.admin = append(s.admin, sentMessage{text: text, photoURL: photoURL})
	return nil
}

func (s *stubNotifier) NotifyAccount(ctx context.Context, accountID int64, text string, keyboard *telegram.Keyboard) error {
	s.users = append(s.users, sentMessage{accountID: accountID, text: text})
	return nil
}

func newTestModeration(accounts *stubAccountStore, profiles *stubProfileStore, photos *stubPhotoStore, notifier *stubNotifier) *Service {
	svc := NewService(accounts, profiles, photos, notifier, Config{
		ReportThreshold:      3,
		PhotoRejectThreshold: 3,
		SupportContact:       "@helpbot",
	})
	svc.now = func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func activeAccount(id int64) model.Account {
	return model.Account{ID: id, Locale: "en", Username: "someone", GlobalState: enums.GlobalStateActive}
}

func TestQueueApprovalSendsCard(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newTestModeration(&stubAccountStore{accounts: map[int64]model.Account{}}, &stubProfileStore{}, &stubPhotoStore{}, notifier)

	account := activeAccount(5)
	profile := model.Profile{
		AccountID:   5,
		DisplayName: "Anna",
		Age:         24,
		AboutMe:     "hello",
		Location:    model.Location{Locality: "Berlin", Country: "Germany"},
		Photo:       model.ProfilePhoto{Path: "https://cdn/photos/5.jpg"},
	}
	if err := svc.QueueApproval(context.Background(), account, profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.admin) != 1 {
		t.Fatalf("unexpected admin messages: %d", len(notifier.admin))
	}
	card := notifier.admin[0]
	if !strings.Contains(card.text, "Anna, 24") || !strings.Contains(card.text, "Berlin") {
		t.Fatalf("unexpected card text: %s", card.text)
	}
	if card.photoURL != "https://cdn/photos/5.jpg" {
		t.Fatalf("unexpected card photo: %s", card.photoURL)
	}
}

func TestApproveActivatesAndNotifies(t *testing.T) {
	accounts := &stubAccountStore{accounts: map[int64]model.Account{5: activeAccount(5)}}
	profiles := &stubProfileStore{}
	notifier := &stubNotifier{}
	svc := newTestModeration(accounts, profiles, &stubPhotoStore{}, notifier)

	if err := svc.Approve(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts.states) != 1 || accounts.states[0] != enums.GlobalStateActive {
		t.Fatalf("unexpected state transitions: %v", accounts.states)
	}
	if !profiles.active[5] {
		t.Fatalf("profile was not activated")
	}
	if len(notifier.users) != 1 || notifier.users[0].accountID != 5 {
		t.Fatalf("user was not notified: %v", notifier.users)
	}
}

func TestRejectBlocksAccount(t *testing.T) {
	accounts := &stubAccountStore{accounts: map[int64]model.Account{5: activeAccount(5)}}
	profiles := &stubProfileStore{}
	svc := newTestModeration(accounts, profiles, &stubPhotoStore{}, &stubNotifier{})

	if err := svc.Reject(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts.blocks) != 1 || accounts.blocks[0] != enums.BlockReasonCommunityRules {
		t.Fatalf("unexpected block reasons: %v", accounts.blocks)
	}
	if active, ok := profiles.active[5]; !ok || active {
		t.Fatalf("profile was not deactivated")
	}
}

func TestReportBelowThreshold(t *testing.T) {
	accounts := &stubAccountStore{accounts: map[int64]model.Account{7: activeAccount(7)}}
	svc := newTestModeration(accounts, &stubProfileStore{}, &stubPhotoStore{}, &stubNotifier{})

	outcome, err := svc.Report(context.Background(), 7, 8, enums.ReportReasonFakeProfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Blocked {
		t.Fatalf("target must not be blocked below threshold")
	}
	if outcome.ReportCount != 1 {
		t.Fatalf("unexpected report count: got %d want 1", outcome.ReportCount)
	}
	if len(accounts.blocks) != 0 {
		t.Fatalf("unexpected blocks: %v", accounts.blocks)
	}
}

func TestReportCrossesThreshold(t *testing.T) {
	accounts := &stubAccountStore{
		accounts:    map[int64]model.Account{7: activeAccount(7)},
		reportCount: 2,
	}
	profiles := &stubProfileStore{}
	notifier := &stubNotifier{}
	svc := newTestModeration(accounts, profiles, &stubPhotoStore{}, notifier)

	outcome, err := svc.Report(context.Background(), 7, 8, enums.ReportReasonThreats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Blocked {
		t.Fatalf("expected target to be blocked at threshold")
	}
	if len(accounts.blocks) != 1 || accounts.blocks[0] != enums.BlockReasonManyComplaints {
		t.Fatalf("unexpected block reasons: %v", accounts.blocks)
	}
	if active, ok := profiles.active[7]; !ok || active {
		t.Fatalf("blocked profile must be deactivated")
	}
	if len(notifier.users) != 1 {
		t.Fatalf("blocked user was not notified")
	}
}

func TestReportSelfRejected(t *testing.T) {
	svc := newTestModeration(&stubAccountStore{accounts: map[int64]model.Account{}}, &stubProfileStore{}, &stubPhotoStore{}, &stubNotifier{})

	if _, err := svc.Report(context.Background(), 7, 7, enums.ReportReasonThreats); !errors.Is(err, ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrValidation)
	}
}

func TestReportAlreadyBlockedTargetNotReblocked(t *testing.T) {
	blocked := activeAccount(7)
	blocked.GlobalState = enums.GlobalStateBlocked
	accounts := &stubAccountStore{
		accounts:    map[int64]model.Account{7: blocked},
		reportCount: 5,
	}
	svc := newTestModeration(accounts, &stubProfileStore{}, &stubPhotoStore{}, &stubNotifier{})

	outcome, err := svc.Report(context.Background(), 7, 8, enums.ReportReasonSaleGoods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Blocked {
		t.Fatalf("already blocked target should still report blocked")
	}
	if len(accounts.blocks) != 0 {
		t.Fatalf("blocked target must not be blocked again: %v", accounts.blocks)
	}
}

func TestPhotoRejectedBelowThreshold(t *testing.T) {
	svc := newTestModeration(&stubAccountStore{accounts: map[int64]model.Account{}}, &stubProfileStore{}, &stubPhotoStore{}, &stubNotifier{})

	blocked, err := svc.PhotoRejected(context.Background(), 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blocked {
		t.Fatalf("account must not be blocked below threshold")
	}
}

func TestPhotoRejectedAtThresholdBlocks(t *testing.T) {
	accounts := &stubAccountStore{accounts: map[int64]model.Account{4: activeAccount(4)}}
	profiles := &stubProfileStore{}
	svc := newTestModeration(accounts, profiles, &stubPhotoStore{}, &stubNotifier{})

	blocked, err := svc.PhotoRejected(context.Background(), 4, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !blocked {
		t.Fatalf("expected block at threshold")
	}
	if len(accounts.blocks) != 1 || accounts.blocks[0] != enums.BlockReasonFaceNotDetected {
		t.Fatalf("unexpected block reasons: %v", accounts.blocks)
	}
}

func TestUnblockRoundTrip(t *testing.T) {
	blocked := activeAccount(9)
	blocked.GlobalState = enums.GlobalStateBlocked
	blocked.BlockReason = enums.BlockReasonManyComplaints
	accounts := &stubAccountStore{accounts: map[int64]model.Account{9: blocked}}
	profiles := &stubProfileStore{}
	photos := &stubPhotoStore{}
	notifier := &stubNotifier{}
	svc := newTestModeration(accounts, profiles, photos, notifier)

	if err := svc.RequestUnblock(context.Background(), blocked); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.admin) != 1 {
		t.Fatalf("unblock request did not reach admin chat")
	}

	if err := svc.ApproveUnblock(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts.cleared) != 1 || accounts.cleared[0] != 9 {
		t.Fatalf("block was not cleared: %v", accounts.cleared)
	}
	if len(photos.resets) != 1 {
		t.Fatalf("reject counter was not reset")
	}
	if !profiles.active[9] {
		t.Fatalf("profile was not reactivated")
	}
}

func TestReportAfterUnblockStartsFresh(t *testing.T) {
	blocked := activeAccount(9)
	blocked.GlobalState = enums.GlobalStateBlocked
	blocked.BlockReason = enums.BlockReasonManyComplaints
	accounts := &stubAccountStore{
		accounts:    map[int64]model.Account{9: blocked},
		reportCount: 5,
	}
	svc := newTestModeration(accounts, &stubProfileStore{}, &stubPhotoStore{}, &stubNotifier{})

	if err := svc.ApproveUnblock(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := svc.Report(context.Background(), 9, 8, enums.ReportReasonFakeProfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Blocked {
		t.Fatalf("first report after unblock must not block")
	}
	if outcome.ReportCount != 1 {
		t.Fatalf("unexpected report count: got %d want 1", outcome.ReportCount)
	}
}

func TestRequestUnblockRequiresRestrictedState(t *testing.T) {
	svc := newTestModeration(&stubAccountStore{accounts: map[int64]model.Account{}}, &stubProfileStore{}, &stubPhotoStore{}, &stubNotifier{})

	if err := svc.RequestUnblock(context.Background(), activeAccount(1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrValidation)
	}
}

func TestDeleteAccount(t *testing.T) {
	accounts := &stubAccountStore{accounts: map[int64]model.Account{2: activeAccount(2)}}
	profiles := &stubProfileStore{}
	svc := newTestModeration(accounts, profiles, &stubPhotoStore{}, &stubNotifier{})

	if err := svc.DeleteAccount(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts.blocks) != 1 || accounts.blocks[0] != enums.BlockReasonDeletedHimself {
		t.Fatalf("unexpected block reasons: %v", accounts.blocks)
	}
	if got := accounts.accounts[2].GlobalState; got != enums.GlobalStateDeleted {
		t.Fatalf("unexpected state: got %s want %s", got, enums.GlobalStateDeleted)
	}
	if active, ok := profiles.active[2]; !ok || active {
		t.Fatalf("deleted profile must be deactivated")
	}
}
