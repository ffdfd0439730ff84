package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/domain/rules"
	"github.com/moonssword/dating-bot/internal/pkg/validate"
	"github.com/moonssword/dating-bot/internal/services/classify"
	"github.com/moonssword/dating-bot/internal/services/matching"
	"github.com/moonssword/dating-bot/internal/ui"
)

func (s *Service) handleActive(ctx context.Context, account model.Account, session *Session, ev classify.Event, effects []Effect) ([]Effect, error) {
	locale := s.locale(account, *session)

	switch ev.Kind {
	case classify.KindCallback:
		return s.handleActiveCallback(ctx, account, session, ev, locale, effects)
	case classify.KindText:
		return s.handleActiveText(ctx, account, session, ev, locale, effects)
	case classify.KindLocation:
		if session.State == enums.ChatStateSelectCity {
			return s.handleCityInput(ctx, session, ev, locale, effects, s.saveCityEdit(ctx, account, locale))
		}
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	case classify.KindPhoto:
		if session.State == enums.ChatStateSelectPhoto {
			return s.handlePhotoInput(ctx, account, session, ev, locale, effects, func(sess *Session) []Effect {
				if err := s.profiles.SetPhoto(ctx, account.ID, sess.Draft.Photo); err != nil {
					s.logger.Error("update photo failed", zap.Int64("account_id", account.ID), zap.Error(err))
					return []Effect{SendMessage{ChatID: ev.ChatID, Text: ui.T(locale, ui.MsgGenericFailure)}}
				}
				return s.enterSettings(sess, ev.ChatID, locale, ui.MsgSaved)
			})
		}
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	default:
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	}
}

func (s *Service) handleActiveCallback(ctx context.Context, account model.Account, session *Session, ev classify.Event, locale string, effects []Effect) ([]Effect, error) {
	switch ev.Action.Kind {
	case classify.ActionLike:
		return s.handleLike(ctx, account, session, ev, locale, effects)

	case classify.ActionDislike:
		if err := s.matcher.Dislike(ctx, account.ID, ev.Action.TargetID); err != nil {
			return nil, fmt.Errorf("dislike: %w", err)
		}
		if session.State == enums.ChatStateViewingProfiles {
			return s.showNextCandidate(ctx, session, ev.ChatID, locale, effects)
		}
		return effects, nil

	case classify.ActionReportMenu:
		session.ReportTargetID = ev.Action.TargetID
		session.State = enums.ChatStateSelectReportReason
		return append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(locale, ui.MsgChooseReport),
			Keyboard: ui.ReportReasonKeyboard(locale, ev.Action.TargetID),
		}), nil

	case classify.ActionReport:
		if _, err := s.moderator.Report(ctx, ev.Action.TargetID, account.ID, ev.Action.Reason); err != nil {
			return nil, fmt.Errorf("report: %w", err)
		}
		session.ReportTargetID = 0
		session.State = enums.ChatStateViewingProfiles
		effects = append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgReportAccepted),
		})
		return s.showNextCandidate(ctx, session, ev.ChatID, locale, effects)

	case classify.ActionUnmatch:
		if err := s.matcher.Unmatch(ctx, account.ID, ev.Action.TargetID); err != nil {
			return nil, fmt.Errorf("unmatch: %w", err)
		}
		return append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgUnmatched),
		}), nil

	case classify.ActionPay:
		invoice, err := s.biller.CreateInvoice(ctx, account.ID, ev.Action.PlanCode)
		if err != nil {
			s.logger.Error("create invoice failed", zap.Int64("account_id", account.ID), zap.Error(err))
			return append(effects, SendMessage{
				ChatID: ev.ChatID,
				Text:   ui.T(locale, ui.MsgGenericFailure),
			}), nil
		}
		effects = append(effects, SendMessage{
			ChatID:      ev.ChatID,
			Text:        ui.T(locale, ui.MsgPaymentLink, invoice.PaymentURL),
			ExpireAfter: paymentLinkExpiry,
		})
		return append(effects, PollPayment{OrderID: invoice.OrderID, AccountID: account.ID}), nil

	case classify.ActionSelectGender:
		if session.State != enums.ChatStateSelectPreferGender {
			return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
		}
		if err := s.updatePreferences(ctx, account.ID, func(p *model.Preferences) {
			p.Gender = ev.Action.Gender
		}); err != nil {
			return nil, err
		}
		session.State = enums.ChatStateSetAgeRange
		return append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgEnterAgeRange),
		}), nil

	case classify.ActionCityOption:
		if session.State != enums.ChatStateChooseCityOption {
			return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
		}
		return s.handleCityOption(ctx, session, ev, locale, effects, s.saveCityEdit(ctx, account, locale))

	default:
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	}
}

func (s *Service) handleActiveText(ctx context.Context, account model.Account, session *Session, ev classify.Event, locale string, effects []Effect) ([]Effect, error) {
	if key, ok := ui.ButtonKey(locale, ev.Text); ok {
		if key == ui.BtnBack {
			return s.enterState(ctx, session, session.State.Parent(), ev.ChatID, locale, effects)
		}
		switch session.State {
		case enums.ChatStateMainMenu:
			return s.handleMainMenuButton(ctx, account, session, key, ev.ChatID, locale, effects)
		case enums.ChatStateSettingsMenu:
			return s.handleSettingsButton(session, key, ev.ChatID, locale, effects)
		}
	}

	switch session.State {
	case enums.ChatStateEnterProfileName:
		name := ev.Text
		if !validate.Required(name) || !validate.MaxLen(name, nameMaxLen) {
			return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
		}
		profile, err := s.profiles.Get(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		profile.DisplayName = name
		if err := s.profiles.Save(ctx, profile); err != nil {
			return nil, fmt.Errorf("save display name: %w", err)
		}
		return append(effects, s.enterSettings(session, ev.ChatID, locale, ui.MsgSaved)...), nil

	case enums.ChatStateEnterAboutMe:
		if !validate.MaxLen(ev.Text, aboutMaxLen) {
			return append(effects, SendMessage{
				ChatID: ev.ChatID,
				Text:   ui.T(locale, ui.MsgAboutTooLong),
			}), nil
		}
		if err := s.profiles.SetAbout(ctx, account.ID, ev.Text); err != nil {
			return nil, fmt.Errorf("save about: %w", err)
		}
		return append(effects, s.enterSettings(session, ev.ChatID, locale, ui.MsgSaved)...), nil

	case enums.ChatStateEnterBirthday:
		birthdate, _, err := rules.ValidateBirthday(ev.Text, time.Now())
		if err != nil {
			if errors.Is(err, rules.ErrAgeOutOfRange) {
				return append(effects, SendMessage{
					ChatID: ev.ChatID,
					Text:   ui.T(locale, ui.MsgAgeOutOfRange, rules.AgeMin, rules.AgeMax),
				}), nil
			}
			return append(effects, SendMessage{
				ChatID: ev.ChatID,
				Text:   ui.T(locale, ui.MsgInvalidBirthday),
			}), nil
		}
		profile, err := s.profiles.Get(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		profile.Birthdate = &birthdate
		if err := s.profiles.Save(ctx, profile); err != nil {
			return nil, fmt.Errorf("save birthdate: %w", err)
		}
		return append(effects, s.enterSettings(session, ev.ChatID, locale, ui.MsgSaved)...), nil

	case enums.ChatStateSelectCity:
		return s.handleCityInput(ctx, session, ev, locale, effects, s.saveCityEdit(ctx, account, locale))

	case enums.ChatStateSetAgeRange:
		min, max, err := validate.ParseAgeRange(ev.Text, rules.AgeMin, rules.AgeMax)
		if err != nil {
			return append(effects, SendMessage{
				ChatID: ev.ChatID,
				Text:   ui.T(locale, ui.MsgInvalidAgeRange, rules.AgeMin, rules.AgeMax),
			}), nil
		}
		if err := s.updatePreferences(ctx, account.ID, func(p *model.Preferences) {
			p.AgeMin, p.AgeMax = min, max
		}); err != nil {
			return nil, err
		}
		session.State = enums.ChatStateSetPreferLocation
		return append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgEnterPrefCity),
		}), nil

	case enums.ChatStateSetPreferLocation:
		options, err := s.locator.SearchCity(ctx, ev.Text)
		if err != nil {
			return append(effects, SendMessage{
				ChatID: ev.ChatID,
				Text:   ui.T(locale, ui.MsgCityNotFound),
			}), nil
		}
		picked := options.Options[0]
		if err := s.updatePreferences(ctx, account.ID, func(p *model.Preferences) {
			p.Locality = picked.Locality
			p.Country = picked.Country
		}); err != nil {
			return nil, err
		}
		return append(effects, s.enterSettings(session, ev.ChatID, locale, ui.MsgSaved)...), nil

	default:
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	}
}

func (s *Service) handleMainMenuButton(ctx context.Context, account model.Account, session *Session, key string, chatID int64, locale string, effects []Effect) ([]Effect, error) {
	switch key {
	case ui.BtnSearch:
		session.State = enums.ChatStateViewingProfiles
		return s.showNextCandidate(ctx, session, chatID, locale, effects)

	case ui.BtnMatches:
		session.State = enums.ChatStateViewingMatches
		return s.showMatches(ctx, account, chatID, locale, effects)

	case ui.BtnLikesYou:
		session.State = enums.ChatStateLikesYou
		return s.showLikesYou(ctx, account, session, chatID, locale, effects)

	case ui.BtnPremium:
		session.State = enums.ChatStateSelectTariff
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgChooseTariff),
			Keyboard: ui.TariffKeyboard(locale, s.subscriptions.Plans(), s.cfg.Currency),
		}), nil

	case ui.BtnSettings:
		session.State = enums.ChatStateSettingsMenu
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgSettingsMenu),
			Keyboard: ui.SettingsKeyboard(locale),
		}), nil

	default:
		return append(effects, s.invalidChoice(chatID, locale)), nil
	}
}

func (s *Service) handleSettingsButton(session *Session, key string, chatID int64, locale string, effects []Effect) ([]Effect, error) {
	switch key {
	case ui.BtnName:
		session.State = enums.ChatStateEnterProfileName
		return append(effects, SendMessage{ChatID: chatID, Text: ui.T(locale, ui.MsgEnterName)}), nil
	case ui.BtnBirthday:
		session.State = enums.ChatStateEnterBirthday
		return append(effects, SendMessage{ChatID: chatID, Text: ui.T(locale, ui.MsgEnterBirthday)}), nil
	case ui.BtnAbout:
		session.State = enums.ChatStateEnterAboutMe
		return append(effects, SendMessage{ChatID: chatID, Text: ui.T(locale, ui.MsgEnterAbout)}), nil
	case ui.BtnPhoto:
		session.State = enums.ChatStateSelectPhoto
		return append(effects, SendMessage{ChatID: chatID, Text: ui.T(locale, ui.MsgSendPhoto)}), nil
	case ui.BtnCity:
		session.State = enums.ChatStateSelectCity
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgEnterCity),
			Keyboard: ui.LocationKeyboard(locale),
		}), nil
	case ui.BtnPrefs:
		session.State = enums.ChatStateSelectPreferGender
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgChoosePrefGender),
			Keyboard: ui.GenderKeyboard(locale),
		}), nil
	case ui.BtnAgeRange:
		session.State = enums.ChatStateSetAgeRange
		return append(effects, SendMessage{ChatID: chatID, Text: ui.T(locale, ui.MsgEnterAgeRange)}), nil
	case ui.BtnDelete:
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgConfirmDelete),
			Keyboard: ui.DeleteConfirmKeyboard(locale),
		}), nil
	default:
		return append(effects, s.invalidChoice(chatID, locale)), nil
	}
}

func (s *Service) handleLike(ctx context.Context, account model.Account, session *Session, ev classify.Event, locale string, effects []Effect) ([]Effect, error) {
	result, err := s.matcher.Like(ctx, account.ID, ev.Action.TargetID)
	if err != nil {
		switch {
		case errors.Is(err, matching.ErrLikeLimitReached):
			return append(effects, SendMessage{
				ChatID:   ev.ChatID,
				Text:     ui.T(locale, ui.MsgChooseTariff),
				Keyboard: ui.TariffKeyboard(locale, s.subscriptions.Plans(), s.cfg.Currency),
			}), nil
		case errors.Is(err, matching.ErrNoCandidate):
			return s.showNextCandidate(ctx, session, ev.ChatID, locale, effects)
		default:
			return nil, fmt.Errorf("like: %w", err)
		}
	}

	if result.Matched {
		target, err := s.accounts.GetByID(ctx, ev.Action.TargetID)
		if err != nil {
			return nil, fmt.Errorf("load matched account: %w", err)
		}
		effects = append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgMatch, result.Liked.DisplayName, target.Username),
		})
		myName := session.Draft.DisplayName
		if myName == "" {
			myName = ev.From.FirstName
		}
		effects = append(effects, NotifyAccount{
			AccountID: ev.Action.TargetID,
			Text:      ui.T(target.Locale, ui.MsgMatch, myName, ev.From.Username),
		})
	} else {
		effects = append(effects, s.likeNotice(ctx, account, ev.Action.TargetID))
	}

	if session.State == enums.ChatStateViewingProfiles {
		return s.showNextCandidate(ctx, session, ev.ChatID, locale, effects)
	}
	return effects, nil
}

// likeNotice builds the one-sided like notification. Premium targets
// see the liker's real photo card; everyone else gets the blurred
// variant with a teaser.
func (s *Service) likeNotice(ctx context.Context, liker model.Account, targetID int64) NotifyAccount {
	targetLocale := ""
	if target, err := s.accounts.GetByID(ctx, targetID); err == nil {
		targetLocale = target.Locale
	}

	notice := NotifyAccount{
		AccountID: targetID,
		Text:      ui.T(targetLocale, ui.MsgLikeNotice),
	}

	me, err := s.profiles.Get(ctx, liker.ID)
	if err != nil {
		return notice
	}

	canSee, err := s.subscriptions.CanSeeWhoLikesYou(ctx, targetID)
	if err != nil {
		s.logger.Warn("likes-you entitlement check failed",
			zap.Int64("account_id", targetID), zap.Error(err))
		canSee = false
	}

	if canSee {
		notice.PhotoURL = me.Photo.Path
		notice.Text = ui.ProfileCard(targetLocale, me, nil)
	} else {
		notice.PhotoURL = me.Photo.BlurredPath
	}
	return notice
}

func (s *Service) showNextCandidate(ctx context.Context, session *Session, chatID int64, locale string, effects []Effect) ([]Effect, error) {
	candidate, err := s.matcher.NextCandidate(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, matching.ErrNoCandidate) {
			session.State = enums.ChatStateMainMenu
			session.CandidateID = 0
			return append(effects, SendMessage{
				ChatID:   chatID,
				Text:     ui.T(locale, ui.MsgNoCandidates),
				Keyboard: ui.MainMenuKeyboard(locale),
			}), nil
		}
		return nil, fmt.Errorf("next candidate: %w", err)
	}

	if session.LastPromptID != 0 {
		effects = append(effects, DeleteMessage{ChatID: chatID, MessageID: session.LastPromptID})
		session.LastPromptID = 0
	}
	session.CandidateID = candidate.Profile.AccountID
	return append(effects, SendPhoto{
		ChatID:      chatID,
		PhotoURL:    candidate.Profile.Photo.Path,
		Caption:     ui.ProfileCard(locale, candidate.Profile, candidate.DistanceKM),
		Keyboard:    ui.BrowseKeyboard(candidate.Profile.AccountID),
		TrackPrompt: true,
	}), nil
}

func (s *Service) showMatches(ctx context.Context, account model.Account, chatID int64, locale string, effects []Effect) ([]Effect, error) {
	matches, err := s.matcher.Matches(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		return append(effects, SendMessage{
			ChatID: chatID,
			Text:   ui.T(locale, ui.MsgNoMatches),
		}), nil
	}
	if len(matches) > listPageSize {
		matches = matches[:listPageSize]
	}
	for _, profile := range matches {
		effects = append(effects, SendPhoto{
			ChatID:   chatID,
			PhotoURL: profile.Photo.Path,
			Caption:  ui.ProfileCard(locale, profile, nil),
			Keyboard: ui.MatchKeyboard(locale, profile.AccountID),
		})
	}
	return effects, nil
}

func (s *Service) showLikesYou(ctx context.Context, account model.Account, session *Session, chatID int64, locale string, effects []Effect) ([]Effect, error) {
	canSee, err := s.subscriptions.CanSeeWhoLikesYou(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("check feature: %w", err)
	}

	if !canSee {
		// The teaser is terminal: without the feature there is nothing
		// to browse, so the session goes straight back to the menu.
		session.State = enums.ChatStateMainMenu
		count, err := s.matcher.LikersCount(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("count likers: %w", err)
		}
		if count == 0 {
			return append(effects, SendMessage{
				ChatID: chatID,
				Text:   ui.T(locale, ui.MsgLikesYouEmpty),
			}), nil
		}
		likers, err := s.matcher.LikesYou(ctx, account.ID, 1)
		if err != nil {
			return nil, fmt.Errorf("list likers: %w", err)
		}
		if len(likers) > 0 && likers[0].Photo.BlurredPath != "" {
			return append(effects, SendPhoto{
				ChatID:   chatID,
				PhotoURL: likers[0].Photo.BlurredPath,
				Caption:  ui.T(locale, ui.MsgLikesYouTeaser, count),
				Keyboard: ui.TariffKeyboard(locale, s.subscriptions.Plans(), s.cfg.Currency),
			}), nil
		}
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgLikesYouTeaser, count),
			Keyboard: ui.TariffKeyboard(locale, s.subscriptions.Plans(), s.cfg.Currency),
		}), nil
	}

	likers, err := s.matcher.LikesYou(ctx, account.ID, listPageSize)
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	if len(likers) == 0 {
		return append(effects, SendMessage{
			ChatID: chatID,
			Text:   ui.T(locale, ui.MsgLikesYouEmpty),
		}), nil
	}
	for _, profile := range likers {
		effects = append(effects, SendPhoto{
			ChatID:   chatID,
			PhotoURL: profile.Photo.Path,
			Caption:  ui.ProfileCard(locale, profile, nil),
			Keyboard: ui.BrowseKeyboard(profile.AccountID),
		})
	}
	return effects, nil
}

// enterState renders the prompt for a target state, used by the BACK
// button.
func (s *Service) enterState(ctx context.Context, session *Session, state enums.ChatState, chatID int64, locale string, effects []Effect) ([]Effect, error) {
	session.State = state
	switch state {
	case enums.ChatStateSettingsMenu:
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgSettingsMenu),
			Keyboard: ui.SettingsKeyboard(locale),
		}), nil
	default:
		session.State = enums.ChatStateMainMenu
		return append(effects, SendMessage{
			ChatID:   chatID,
			Text:     ui.T(locale, ui.MsgMainMenu),
			Keyboard: ui.MainMenuKeyboard(locale),
		}), nil
	}
}

func (s *Service) enterSettings(session *Session, chatID int64, locale, msgKey string) []Effect {
	session.State = enums.ChatStateSettingsMenu
	return []Effect{SendMessage{
		ChatID:   chatID,
		Text:     ui.T(locale, msgKey),
		Keyboard: ui.SettingsKeyboard(locale),
	}}
}

// saveCityEdit is the advance hook for the city editor: the resolved
// location is written straight to the profile.
func (s *Service) saveCityEdit(ctx context.Context, account model.Account, locale string) func(*Session, model.Location, int64) []Effect {
	return func(session *Session, loc model.Location, chatID int64) []Effect {
		if err := s.profiles.SetLocation(ctx, account.ID, loc); err != nil {
			s.logger.Error("update location failed", zap.Int64("account_id", account.ID), zap.Error(err))
			return []Effect{SendMessage{ChatID: chatID, Text: ui.T(locale, ui.MsgGenericFailure)}}
		}
		return s.enterSettings(session, chatID, locale, ui.MsgSaved)
	}
}

func (s *Service) updatePreferences(ctx context.Context, accountID int64, mutate func(*model.Preferences)) error {
	profile, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	mutate(&profile.Preferences)
	if err := s.profiles.SetPreferences(ctx, accountID, profile.Preferences); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
