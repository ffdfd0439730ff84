package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/moonssword/dating-bot/internal/config"
	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/telegram"
	"github.com/moonssword/dating-bot/internal/services/classify"
	"github.com/moonssword/dating-bot/internal/services/geo"
	"github.com/moonssword/dating-bot/internal/services/matching"
	"github.com/moonssword/dating-bot/internal/services/media"
	"github.com/moonssword/dating-bot/internal/services/moderation"
	"github.com/moonssword/dating-bot/internal/services/payments"
	"github.com/moonssword/dating-bot/internal/ui"
)

const (
	aboutMaxLen        = 1000
	nameMaxLen         = 50
	listPageSize       = 10
	paymentLinkExpiry  = 15 * time.Minute
	cityOptionsMaxShow = 5
)

type SessionStore interface {
	Get(ctx context.Context, accountID int64) (Session, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, accountID int64) error
}

type AccountStore interface {
	GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName, locale string, isBot bool) (model.Account, bool, error)
	GetByID(ctx context.Context, accountID int64) (model.Account, error)
	SetGlobalState(ctx context.Context, accountID int64, state enums.GlobalState) error
}

type ProfileStore interface {
	Get(ctx context.Context, accountID int64) (model.Profile, error)
	Save(ctx context.Context, p model.Profile) error
	SetAbout(ctx context.Context, accountID int64, about string) error
	SetPhoto(ctx context.Context, accountID int64, photo model.ProfilePhoto) error
	SetLocation(ctx context.Context, accountID int64, loc model.Location) error
	SetPreferences(ctx context.Context, accountID int64, prefs model.Preferences) error
}

type Matcher interface {
	NextCandidate(ctx context.Context, requesterID int64) (matching.Candidate, error)
	Like(ctx context.Context, fromID, toID int64) (matching.LikeResult, error)
	Dislike(ctx context.Context, fromID, toID int64) error
	Unmatch(ctx context.Context, requesterID, otherID int64) error
	Matches(ctx context.Context, requesterID int64) ([]model.Profile, error)
	LikesYou(ctx context.Context, requesterID int64, limit int) ([]model.Profile, error)
	LikersCount(ctx context.Context, requesterID int64) (int, error)
}

type SubscriptionReader interface {
	CanSeeWhoLikesYou(ctx context.Context, accountID int64) (bool, error)
	Plans() []config.PlanConfig
}

type Biller interface {
	CreateInvoice(ctx context.Context, accountID int64, planCode string) (payments.InvoiceResult, error)
}

type Uploader interface {
	Upload(ctx context.Context, accountID int64, fileID string) (media.UploadResult, error)
}

type Locator interface {
	ResolveLocation(ctx context.Context, lat, lon float64) (model.Location, error)
	SearchCity(ctx context.Context, query string) (geo.CityOptions, error)
	PickOption(ctx context.Context, token string, index int) (model.Location, error)
}

type Moderator interface {
	QueueApproval(ctx context.Context, account model.Account, profile model.Profile) error
	Report(ctx context.Context, targetID, reporterID int64, reason enums.ReportReason) (moderation.ReportOutcome, error)
	PhotoRejected(ctx context.Context, accountID int64, rejectCount int) (bool, error)
	RequestUnblock(ctx context.Context, account model.Account) error
	DeleteAccount(ctx context.Context, accountID int64) error
}

type Config struct {
	AgreementURL   string
	SupportContact string
	Currency       string
}

// Service is the conversation state machine. Handle consumes one
// normalized event and returns the effects to execute; session state
// lands in redis before effects run.
type Service struct {
	sessions      SessionStore
	accounts      AccountStore
	profiles      ProfileStore
	matcher       Matcher
	subscriptions SubscriptionReader
	biller        Biller
	uploader      Uploader
	locator       Locator
	moderator     Moderator
	cfg           Config
	logger        *zap.Logger
}

type Dependencies struct {
	Sessions      SessionStore
	Accounts      AccountStore
	Profiles      ProfileStore
	Matcher       Matcher
	Subscriptions SubscriptionReader
	Biller        Biller
	Uploader      Uploader
	Locator       Locator
	Moderator     Moderator
}

func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:      deps.Sessions,
		accounts:      deps.Accounts,
		profiles:      deps.Profiles,
		matcher:       deps.Matcher,
		subscriptions: deps.Subscriptions,
		biller:        deps.Biller,
		uploader:      deps.Uploader,
		locator:       deps.Locator,
		moderator:     deps.Moderator,
		cfg:           cfg,
		logger:        logger,
	}
}

// Handle runs one event through the state machine.
func (s *Service) Handle(ctx context.Context, ev classify.Event) ([]Effect, error) {
	account, created, err := s.accounts.GetOrCreate(ctx, ev.From.UserID, ev.From.Username, ev.From.FirstName, ev.From.LastName, ev.From.Locale, ev.From.IsBot)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	var effects []Effect
	if ev.Kind == classify.KindCallback {
		effects = append(effects, AnswerCallback{CallbackID: ev.CallbackID})
	}

	if account.GlobalState.Restricted() {
		return s.handleRestricted(ctx, account, ev, effects)
	}

	if ev.Kind == classify.KindCallback && ev.Action.Kind == classify.ActionDeleteAccount &&
		account.GlobalState == enums.GlobalStateActive {
		if err := s.moderator.DeleteAccount(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("delete account: %w", err)
		}
		if err := s.sessions.Delete(ctx, account.ID); err != nil {
			s.logger.Warn("delete session failed", zap.Int64("account_id", account.ID), zap.Error(err))
		}
		return effects, nil
	}

	session, err := s.sessions.Get(ctx, account.ID)
	if errors.Is(err, ErrSessionNotFound) {
		session = s.healSession(account, ev)
	} else if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if created || account.GlobalState == enums.GlobalStateNew ||
		(ev.Kind == classify.KindCommand && ev.Command == "start") {
		return s.handleStart(ctx, account, session, ev, effects)
	}

	switch account.GlobalState {
	case enums.GlobalStateRegistration:
		effects, err = s.handleRegistration(ctx, account, &session, ev, effects)
	case enums.GlobalStateActive:
		effects, err = s.handleActive(ctx, account, &session, ev, effects)
	default:
		effects = append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(s.locale(account, session), ui.MsgGenericFailure),
		})
	}
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return effects, nil
}

// SetLastPrompt is called by the effect executor after sending a
// tracked message, so the next transition can delete the stale prompt.
func (s *Service) SetLastPrompt(ctx context.Context, accountID int64, messageID int) error {
	session, err := s.sessions.Get(ctx, accountID)
	if err != nil {
		return err
	}
	session.LastPromptID = messageID
	return s.sessions.Save(ctx, session)
}

func (s *Service) handleRestricted(ctx context.Context, account model.Account, ev classify.Event, effects []Effect) ([]Effect, error) {
	// A self-deleted account may come back through /start.
	if account.BlockReason == enums.BlockReasonDeletedHimself &&
		ev.Kind == classify.KindCommand && ev.Command == "start" {
		if err := s.accounts.SetGlobalState(ctx, account.ID, enums.GlobalStateNew); err != nil {
			return nil, fmt.Errorf("revive deleted account: %w", err)
		}
		account.GlobalState = enums.GlobalStateNew
		account.BlockReason = enums.BlockReasonNone
		session := newSession(account.ID, enums.ChatStateSelectLanguage)
		return s.handleStart(ctx, account, session, ev, effects)
	}

	if ev.Kind == classify.KindCallback && ev.Action.Kind == classify.ActionUnblockRequest {
		if err := s.moderator.RequestUnblock(ctx, account); err != nil {
			return nil, err
		}
		return effects, nil
	}

	text := ui.BlockMessage(account.Locale, account.BlockReason, s.cfg.SupportContact)
	var kb *telegram.Keyboard
	if account.BlockReason != enums.BlockReasonDeletedHimself {
		kb = ui.UnblockRequestKeyboard(account.Locale)
	}
	effects = append(effects, SendMessage{ChatID: ev.ChatID, Text: text, Keyboard: kb})
	return effects, nil
}

func (s *Service) handleStart(ctx context.Context, account model.Account, session Session, ev classify.Event, effects []Effect) ([]Effect, error) {
	switch account.GlobalState {
	case enums.GlobalStateActive:
		session.State = enums.ChatStateMainMenu
		effects = append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(s.locale(account, session), ui.MsgMainMenu),
			Keyboard: ui.MainMenuKeyboard(s.locale(account, session)),
		})
	default:
		if account.GlobalState != enums.GlobalStateRegistration {
			if err := s.accounts.SetGlobalState(ctx, account.ID, enums.GlobalStateRegistration); err != nil {
				return nil, fmt.Errorf("start registration: %w", err)
			}
		}
		session = newSession(account.ID, enums.ChatStateSelectLanguage)
		session.Draft.Locale = ev.From.Locale
		session.Draft.DisplayName = ev.From.FirstName
		effects = append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(session.Draft.Locale, ui.MsgChooseLanguage),
			Keyboard: ui.LanguageKeyboard(),
		})
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return effects, nil
}

// healSession rebuilds a missing session from the account state.
func (s *Service) healSession(account model.Account, ev classify.Event) Session {
	switch account.GlobalState {
	case enums.GlobalStateActive:
		return newSession(account.ID, enums.ChatStateMainMenu)
	default:
		session := newSession(account.ID, enums.ChatStateSelectLanguage)
		session.Draft.Locale = ev.From.Locale
		session.Draft.DisplayName = ev.From.FirstName
		return session
	}
}

func (s *Service) locale(account model.Account, session Session) string {
	if session.Draft.Locale != "" {
		return session.Draft.Locale
	}
	return account.Locale
}

func (s *Service) invalidChoice(chatID int64, locale string) Effect {
	return SendMessage{ChatID: chatID, Text: ui.T(locale, ui.MsgInvalidChoice)}
}

func telegramRemove() *telegram.Keyboard {
	return telegram.RemoveKeyboard()
}
