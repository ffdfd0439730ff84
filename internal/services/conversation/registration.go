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
	"github.com/moonssword/dating-bot/internal/services/classify"
	"github.com/moonssword/dating-bot/internal/ui"
)

const birthdateLayout = "2006-01-02"

func (s *Service) handleRegistration(ctx context.Context, account model.Account, session *Session, ev classify.Event, effects []Effect) ([]Effect, error) {
	locale := s.locale(account, *session)

	switch session.State {
	case enums.ChatStateSelectLanguage:
		if ev.Kind != classify.KindCallback || ev.Action.Kind != classify.ActionSelectLanguage {
			return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
		}
		session.Draft.Locale = ev.Action.Language
		session.State = enums.ChatStateSelectGender
		return append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(session.Draft.Locale, ui.MsgChooseGender),
			Keyboard: ui.GenderKeyboard(session.Draft.Locale),
		}), nil

	case enums.ChatStateSelectGender:
		if ev.Kind != classify.KindCallback || ev.Action.Kind != classify.ActionSelectGender {
			return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
		}
		session.Draft.Gender = ev.Action.Gender
		session.State = enums.ChatStateSelectCity
		return append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(locale, ui.MsgEnterCity),
			Keyboard: ui.LocationKeyboard(locale),
		}), nil

	case enums.ChatStateSelectCity:
		return s.handleCityInput(ctx, session, ev, locale, effects, s.advanceToBirthday)

	case enums.ChatStateChooseCityOption:
		return s.handleCityOption(ctx, session, ev, locale, effects, s.advanceToBirthday)

	case enums.ChatStateEnterBirthday:
		if ev.Kind != classify.KindText {
			return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
		}
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
		session.Draft.Birthdate = birthdate.Format(birthdateLayout)
		session.State = enums.ChatStateSelectPhoto
		return append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgSendPhoto),
		}), nil

	case enums.ChatStateSelectPhoto:
		return s.handlePhotoInput(ctx, account, session, ev, locale, effects, func(sess *Session) []Effect {
			sess.State = enums.ChatStateConfirmAgreement
			return []Effect{SendMessage{
				ChatID:   ev.ChatID,
				Text:     ui.T(locale, ui.MsgConfirmAgreement, s.cfg.AgreementURL),
				Keyboard: ui.AgreementKeyboard(locale, s.cfg.AgreementURL),
			}}
		})

	case enums.ChatStateConfirmAgreement:
		if ev.Kind != classify.KindCallback || ev.Action.Kind != classify.ActionAgree {
			return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
		}
		return s.completeRegistration(ctx, account, session, ev, locale, effects)

	default:
		// A stray state while still registering restarts the chain.
		session.State = enums.ChatStateSelectLanguage
		return append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(locale, ui.MsgChooseLanguage),
			Keyboard: ui.LanguageKeyboard(),
		}), nil
	}
}

// handleCityInput covers the select_city state for both registration
// and the settings editor. advance runs once a location is resolved.
func (s *Service) handleCityInput(ctx context.Context, session *Session, ev classify.Event, locale string, effects []Effect, advance func(*Session, model.Location, int64) []Effect) ([]Effect, error) {
	switch ev.Kind {
	case classify.KindLocation:
		loc, err := s.locator.ResolveLocation(ctx, ev.Latitude, ev.Longitude)
		if err != nil {
			s.logger.Warn("reverse geocode failed", zap.Error(err))
			return append(effects, SendMessage{
				ChatID: ev.ChatID,
				Text:   ui.T(locale, ui.MsgCityNotFound),
			}), nil
		}
		return append(effects, advance(session, loc, ev.ChatID)...), nil

	case classify.KindText:
		options, err := s.locator.SearchCity(ctx, ev.Text)
		if err != nil {
			return append(effects, SendMessage{
				ChatID: ev.ChatID,
				Text:   ui.T(locale, ui.MsgCityNotFound),
			}), nil
		}
		session.CityOptionsToken = options.Token
		session.State = enums.ChatStateChooseCityOption
		shown := options.Options
		if len(shown) > cityOptionsMaxShow {
			shown = shown[:cityOptionsMaxShow]
		}
		return append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(locale, ui.MsgChooseCityOption),
			Keyboard: ui.CityOptionsKeyboard(options.Token, shown),
		}), nil

	default:
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	}
}

func (s *Service) handleCityOption(ctx context.Context, session *Session, ev classify.Event, locale string, effects []Effect, advance func(*Session, model.Location, int64) []Effect) ([]Effect, error) {
	if ev.Kind != classify.KindCallback || ev.Action.Kind != classify.ActionCityOption {
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	}

	loc, err := s.locator.PickOption(ctx, ev.Action.CityKey, ev.Action.CityIdx)
	if err != nil {
		session.State = enums.ChatStateSelectCity
		session.CityOptionsToken = ""
		return append(effects, SendMessage{
			ChatID:   ev.ChatID,
			Text:     ui.T(locale, ui.MsgCityExpired),
			Keyboard: ui.LocationKeyboard(locale),
		}), nil
	}
	session.CityOptionsToken = ""
	return append(effects, advance(session, loc, ev.ChatID)...), nil
}

func (s *Service) advanceToBirthday(session *Session, loc model.Location, chatID int64) []Effect {
	session.Draft.Location = loc
	session.State = enums.ChatStateEnterBirthday
	return []Effect{SendMessage{
		ChatID:   chatID,
		Text:     ui.T(session.Draft.Locale, ui.MsgEnterBirthday),
		Keyboard: telegramRemove(),
	}}
}

// handlePhotoInput covers the select_photo state for registration and
// the settings editor. onVerified runs after a face-checked upload.
func (s *Service) handlePhotoInput(ctx context.Context, account model.Account, session *Session, ev classify.Event, locale string, effects []Effect, onVerified func(*Session) []Effect) ([]Effect, error) {
	if ev.Kind != classify.KindPhoto {
		return append(effects, s.invalidChoice(ev.ChatID, locale)), nil
	}

	result, err := s.uploader.Upload(ctx, account.ID, ev.PhotoFileID)
	if err != nil {
		s.logger.Error("photo upload failed", zap.Int64("account_id", account.ID), zap.Error(err))
		return append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgGenericFailure),
		}), nil
	}

	if !result.FaceDetected {
		blocked, err := s.moderator.PhotoRejected(ctx, account.ID, result.RejectCount)
		if err != nil {
			return nil, fmt.Errorf("handle rejected photo: %w", err)
		}
		if blocked {
			// The block notice goes out through the moderation notifier.
			return effects, nil
		}
		return append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgPhotoNoFace),
		}), nil
	}

	session.Draft.Photo = model.ProfilePhoto{
		PhotoID:     result.Photo.ID,
		Path:        result.Photo.Path,
		BlurredPath: result.Photo.BlurredPath,
		UploadedAt:  result.Photo.UploadedAt,
	}
	return append(effects, onVerified(session)...), nil
}

func (s *Service) completeRegistration(ctx context.Context, account model.Account, session *Session, ev classify.Event, locale string, effects []Effect) ([]Effect, error) {
	birthdate, err := time.Parse(birthdateLayout, session.Draft.Birthdate)
	if err != nil {
		session.State = enums.ChatStateEnterBirthday
		return append(effects, SendMessage{
			ChatID: ev.ChatID,
			Text:   ui.T(locale, ui.MsgEnterBirthday),
		}), nil
	}

	displayName := session.Draft.DisplayName
	if displayName == "" {
		displayName = ev.From.FirstName
	}

	profile := model.Profile{
		AccountID:   account.ID,
		DisplayName: displayName,
		Gender:      session.Draft.Gender,
		Birthdate:   &birthdate,
		Location:    session.Draft.Location,
		Photo:       session.Draft.Photo,
		IsActive:    false,
		Preferences: model.Preferences{
			Gender:   oppositeGender(session.Draft.Gender),
			AgeMin:   rules.AgeMin,
			AgeMax:   rules.AgeMax,
			Locality: session.Draft.Location.Locality,
			Country:  session.Draft.Location.Country,
		},
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	account.Locale = locale
	if err := s.moderator.QueueApproval(ctx, account, profile); err != nil {
		s.logger.Error("queue approval failed", zap.Int64("account_id", account.ID), zap.Error(err))
	}

	session.State = enums.ChatStateMainMenu
	return append(effects, SendMessage{
		ChatID:   ev.ChatID,
		Text:     ui.T(locale, ui.MsgWaitApproval),
		Keyboard: telegramRemove(),
	}), nil
}

func oppositeGender(g enums.Gender) enums.Gender {
	if g == enums.GenderMale {
		return enums.GenderFemale
	}
	return enums.GenderMale
}
