package moderation

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/telegram"
	"github.com/moonssword/dating-bot/internal/ui"
)

var ErrValidation = errors.New("validation error")

type AccountStore interface {
	GetByID(ctx context.Context, accountID int64) (model.Account, error)
	SetGlobalState(ctx context.Context, accountID int64, state enums.GlobalState) error
	SetBlock(ctx context.Context, accountID int64, state enums.GlobalState, reason enums.BlockReason, at time.Time) error
	ClearBlock(ctx context.Context, accountID int64, state enums.GlobalState) error
	AddReport(ctx context.Context, accountID, reporterID int64, reason enums.ReportReason) (int, error)
}

type ProfileStore interface {
	Get(ctx context.Context, accountID int64) (model.Profile, error)
	SetActive(ctx context.Context, accountID int64, active bool) error
}

type PhotoStore interface {
	ResetRejectCount(ctx context.Context, accountID int64) error
}

// Notifier delivers moderation traffic: review cards to the admin chat
// and verdicts back to the account's private chat.
type Notifier interface {
	NotifyAdmin(ctx context.Context, text, photoURL string, keyboard *telegram.Keyboard) error
	NotifyAccount(ctx context.Context, accountID int64, text string, keyboard *telegram.Keyboard) error
}

type Config struct {
	ReportThreshold      int
	PhotoRejectThreshold int
	SupportContact       string
}

type Service struct {
	accounts AccountStore
	profiles ProfileStore
	photos   PhotoStore
	notifier Notifier
	cfg      Config
	now      func() time.Time
}

func NewService(accounts AccountStore, profiles ProfileStore, photos PhotoStore, notifier Notifier, cfg Config) *Service {
	if cfg.ReportThreshold <= 0 {
		cfg.ReportThreshold = 10
	}
	if cfg.PhotoRejectThreshold <= 0 {
		cfg.PhotoRejectThreshold = 10
	}
	return &Service{
		accounts: accounts,
		profiles: profiles,
		photos:   photos,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// QueueApproval posts the freshly registered profile to the admin chat
// for a manual approve/reject decision.
func (s *Service) QueueApproval(ctx context.Context, account model.Account, profile model.Profile) error {
	if account.ID <= 0 {
		return fmt.Errorf("invalid account id: %w", ErrValidation)
	}

	card := approvalCard(account, profile)
	if err := s.notifier.NotifyAdmin(ctx, card, profile.Photo.Path, ui.ModerationCardKeyboard(account.ID)); err != nil {
		return fmt.Errorf("queue approval: %w", err)
	}
	return nil
}

// Approve activates the account after manual review and tells the user.
func (s *Service) Approve(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.accounts.SetGlobalState(ctx, accountID, enums.GlobalStateActive); err != nil {
		return fmt.Errorf("approve account: %w", err)
	}
	if err := s.profiles.SetActive(ctx, accountID, true); err != nil {
		return fmt.Errorf("activate profile: %w", err)
	}

	return s.notifier.NotifyAccount(ctx, accountID, ui.T(account.Locale, ui.MsgApproved), ui.MainMenuKeyboard(account.Locale))
}

// Reject puts the account into the rejected terminal state.
func (s *Service) Reject(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.accounts.SetBlock(ctx, accountID, enums.GlobalStateRejected, enums.BlockReasonCommunityRules, s.now()); err != nil {
		return fmt.Errorf("reject account: %w", err)
	}
	if err := s.profiles.SetActive(ctx, accountID, false); err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}

	return s.notifier.NotifyAccount(ctx, accountID, ui.T(account.Locale, ui.MsgRejected), ui.UnblockRequestKeyboard(account.Locale))
}

// ReportOutcome tells the caller whether this report tipped the target
// over the complaints threshold.
type ReportOutcome struct {
	ReportCount int
	Blocked     bool
}

// Report records a complaint. Repeat complaints from the same reporter
// do not raise the count. Crossing the threshold blocks the target.
func (s *Service) Report(ctx context.Context, targetID, reporterID int64, reason enums.ReportReason) (ReportOutcome, error) {
	if targetID <= 0 || reporterID <= 0 || targetID == reporterID {
		return ReportOutcome{}, fmt.Errorf("invalid report pair: %w", ErrValidation)
	}

	count, err := s.accounts.AddReport(ctx, targetID, reporterID, reason)
	if err != nil {
		return ReportOutcome{}, fmt.Errorf("add report: %w", err)
	}
	outcome := ReportOutcome{ReportCount: count}
	if count < s.cfg.ReportThreshold {
		return outcome, nil
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return outcome, err
	}
	if target.GlobalState.Restricted() {
		outcome.Blocked = true
		return outcome, nil
	}

	if err := s.accounts.SetBlock(ctx, targetID, enums.GlobalStateBlocked, enums.BlockReasonManyComplaints, s.now()); err != nil {
		return outcome, fmt.Errorf("block reported account: %w", err)
	}
	if err := s.profiles.SetActive(ctx, targetID, false); err != nil {
		return outcome, fmt.Errorf("deactivate reported profile: %w", err)
	}
	outcome.Blocked = true

	text := ui.BlockMessage(target.Locale, enums.BlockReasonManyComplaints, s.cfg.SupportContact)
	return outcome, s.notifier.NotifyAccount(ctx, targetID, text, ui.UnblockRequestKeyboard(target.Locale))
}

// PhotoRejected reacts to a failed face check. Hitting the consecutive
// rejection threshold blocks the account.
func (s *Service) PhotoRejected(ctx context.Context, accountID int64, rejectCount int) (bool, error) {
	if rejectCount < s.cfg.PhotoRejectThreshold {
		return false, nil
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, err
	}

	if err := s.accounts.SetBlock(ctx, accountID, enums.GlobalStateBlocked, enums.BlockReasonFaceNotDetected, s.now()); err != nil {
		return false, fmt.Errorf("block account: %w", err)
	}
	if err := s.profiles.SetActive(ctx, accountID, false); err != nil {
		return false, fmt.Errorf("deactivate profile: %w", err)
	}

	text := ui.BlockMessage(account.Locale, enums.BlockReasonFaceNotDetected, s.cfg.SupportContact)
	return true, s.notifier.NotifyAccount(ctx, accountID, text, ui.UnblockRequestKeyboard(account.Locale))
}

// RequestUnblock forwards a blocked user's plea to the admin chat.
func (s *Service) RequestUnblock(ctx context.Context, account model.Account) error {
	if !account.GlobalState.Restricted() {
		return fmt.Errorf("account %d is not blocked: %w", account.ID, ErrValidation)
	}

	card := unblockCard(account)
	if err := s.notifier.NotifyAdmin(ctx, card, "", ui.UnblockReviewKeyboard(account.ID)); err != nil {
		return fmt.Errorf("request unblock: %w", err)
	}
	return s.notifier.NotifyAccount(ctx, account.ID, ui.T(account.Locale, ui.MsgUnblockSent), nil)
}

// ApproveUnblock restores a blocked account to active and clears the
// state that led to the block.
func (s *Service) ApproveUnblock(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.accounts.ClearBlock(ctx, accountID, enums.GlobalStateActive); err != nil {
		return fmt.Errorf("clear block: %w", err)
	}
	if err := s.photos.ResetRejectCount(ctx, accountID); err != nil {
		return fmt.Errorf("reset reject count: %w", err)
	}
	if err := s.profiles.SetActive(ctx, accountID, true); err != nil {
		return fmt.Errorf("reactivate profile: %w", err)
	}

	return s.notifier.NotifyAccount(ctx, accountID, ui.T(account.Locale, ui.MsgUnblockApproved), ui.MainMenuKeyboard(account.Locale))
}

// RejectUnblock keeps the block and points the user at support.
func (s *Service) RejectUnblock(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	text := ui.T(account.Locale, ui.MsgUnblockRejected, s.cfg.SupportContact)
	return s.notifier.NotifyAccount(ctx, accountID, text, nil)
}

// DeleteAccount handles the user's own deletion request. The row stays
// for audit, the account just becomes invisible and unusable.
func (s *Service) DeleteAccount(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.accounts.SetBlock(ctx, accountID, enums.GlobalStateDeleted, enums.BlockReasonDeletedHimself, s.now()); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := s.profiles.SetActive(ctx, accountID, false); err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}

	return s.notifier.NotifyAccount(ctx, accountID, ui.T(account.Locale, ui.MsgAccountDeleted), telegram.RemoveKeyboard())
}

func approvalCard(account model.Account, profile model.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Profile review #%d</b>\n", account.ID)
	fmt.Fprintf(&b, "%s, %d\n", html.EscapeString(profile.DisplayName), profile.Age)
	if profile.Location.Locality != "" {
		fmt.Fprintf(&b, "%s, %s\n", html.EscapeString(profile.Location.Locality), html.EscapeString(profile.Location.Country))
	}
	if account.Username != "" {
		fmt.Fprintf(&b, "@%s\n", html.EscapeString(account.Username))
	}
	if about := strings.TrimSpace(profile.AboutMe); about != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(about))
	}
	return b.String()
}

func unblockCard(account model.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Unblock request #%d</b>\n", account.ID)
	if account.Username != "" {
		fmt.Fprintf(&b, "@%s\n", html.EscapeString(account.Username))
	}
	fmt.Fprintf(&b, "State: %s\nReason: %s", account.GlobalState, account.BlockReason)
	if account.BlockedAt != nil {
		fmt.Fprintf(&b, "\nBlocked at: %s", account.BlockedAt.UTC().Format(time.RFC3339))
	}
	return b.String()
}
