package ui

import (
	"fmt"
	"strings"

	"github.com/moonssword/dating-bot/internal/domain/enums"
)

// Locale is "en" or "ru"; anything else falls back to "en".

const (
	MsgChooseLanguage   = "choose_language"
	MsgChooseGender     = "choose_gender"
	MsgEnterCity        = "enter_city"
	MsgChooseCityOption = "choose_city_option"
	MsgCityNotFound     = "city_not_found"
	MsgCityExpired      = "city_expired"
	MsgEnterBirthday    = "enter_birthday"
	MsgInvalidBirthday  = "invalid_birthday"
	MsgAgeOutOfRange    = "age_out_of_range"
	MsgSendPhoto        = "send_photo"
	MsgPhotoNoFace      = "photo_no_face"
	MsgConfirmAgreement = "confirm_agreement"
	MsgWaitApproval     = "wait_approval"
	MsgApproved         = "approved"
	MsgRejected         = "rejected"
	MsgMainMenu         = "main_menu"
	MsgSettingsMenu     = "settings_menu"
	MsgInvalidChoice    = "invalid_choice"
	MsgNoCandidates     = "no_candidates"
	MsgMatch            = "match"
	MsgLikeNotice       = "like_notice"
	MsgLikesYouTeaser   = "likes_you_teaser"
	MsgLikesYouEmpty    = "likes_you_empty"
	MsgNoMatches        = "no_matches"
	MsgUnmatched        = "unmatched"
	MsgChooseTariff     = "choose_tariff"
	MsgPaymentLink      = "payment_link"
	MsgPaymentSuccess   = "payment_success"
	MsgPaymentExpired   = "payment_expired"
	MsgSubExpired       = "sub_expired"
	MsgChooseReport     = "choose_report"
	MsgReportAccepted   = "report_accepted"
	MsgEnterAbout       = "enter_about"
	MsgAboutTooLong     = "about_too_long"
	MsgEnterName        = "enter_name"
	MsgChoosePrefGender = "choose_pref_gender"
	MsgEnterAgeRange    = "enter_age_range"
	MsgInvalidAgeRange  = "invalid_age_range"
	MsgSaved            = "saved"
	MsgUnblockSent      = "unblock_sent"
	MsgUnblockApproved  = "unblock_approved"
	MsgUnblockRejected  = "unblock_rejected"
	MsgConfirmDelete    = "confirm_delete"
	MsgAccountDeleted   = "account_deleted"
	MsgEnterPrefCity    = "enter_pref_city"
	MsgGenericFailure   = "generic_failure"
)

var texts = map[string]map[string]string{
	"en": {
		MsgChooseLanguage:   "Hi! Choose your language:",
		MsgChooseGender:     "Who are you?",
		MsgEnterCity:        "Type your city name or share your location.",
		MsgChooseCityOption: "Which one did you mean?",
		MsgCityNotFound:     "Could not find that city, try again.",
		MsgCityExpired:      "That city list is stale, type your city again.",
		MsgEnterBirthday:    "Enter your birthday as dd.mm.yyyy",
		MsgInvalidBirthday:  "That does not look like dd.mm.yyyy, try again.",
		MsgAgeOutOfRange:    "Sorry, the service is for ages %d to %d.",
		MsgSendPhoto:        "Send a photo of yourself. Your face must be visible.",
		MsgPhotoNoFace:      "We could not see a face on that photo, send another one.",
		MsgConfirmAgreement: "Almost done! Please read the <a href=\"%s\">user agreement</a> and confirm.",
		MsgWaitApproval:     "Thanks! Your profile is waiting for moderator approval.",
		MsgApproved:         "Your profile is approved. Happy matching!",
		MsgRejected:         "Your profile was rejected for violating community rules.",
		MsgMainMenu:         "Main menu",
		MsgSettingsMenu:     "Profile settings",
		MsgInvalidChoice:    "Please use the buttons below.",
		MsgNoCandidates:     "No more profiles for now, check back later.",
		MsgMatch:            "It's a match with %s! Say hi: @%s",
		MsgLikeNotice:       "Someone liked your profile!",
		MsgLikesYouTeaser:   "%d people liked you. Subscribe to see who they are.",
		MsgLikesYouEmpty:    "Nobody has liked you yet, keep browsing!",
		MsgNoMatches:        "You have no matches yet.",
		MsgUnmatched:        "Match removed.",
		MsgChooseTariff:     "Choose a subscription plan:",
		MsgPaymentLink:      "Pay here: %s\nThe link is valid for a limited time.",
		MsgPaymentSuccess:   "Payment received, your subscription is active!",
		MsgPaymentExpired:   "Payment was not completed. Try again from the menu.",
		MsgSubExpired:       "Your subscription has expired, you are back on the free plan.",
		MsgChooseReport:     "Why are you reporting this profile?",
		MsgReportAccepted:   "Thanks, the report was sent to moderators.",
		MsgEnterAbout:       "Tell us about yourself (up to 1000 characters).",
		MsgAboutTooLong:     "Too long, keep it under 1000 characters.",
		MsgEnterName:        "What should we call you?",
		MsgChoosePrefGender: "Who are you looking for?",
		MsgEnterAgeRange:    "Send the age range as min-max, e.g. 25-35",
		MsgInvalidAgeRange:  "That range does not work, send it as min-max within %d-%d.",
		MsgSaved:            "Saved.",
		MsgUnblockSent:      "Your unblock request was sent to moderators.",
		MsgUnblockApproved:  "You are unblocked, welcome back!",
		MsgUnblockRejected:  "Your request was declined. Contact support: %s",
		MsgConfirmDelete:    "Delete your account? Your profile and matches will be gone.",
		MsgAccountDeleted:   "Your account is deleted. Send /start to register again.",
		MsgEnterPrefCity:    "Which city should we search in? Type a city name.",
		MsgGenericFailure:   "Something went wrong, try again later.",
	},
	"ru": {
		MsgChooseLanguage:   "Привет! Выберите язык:",
		MsgChooseGender:     "Кто вы?",
		MsgEnterCity:        "Напишите название города или отправьте геолокацию.",
		MsgChooseCityOption: "Какой из этих городов?",
		MsgCityNotFound:     "Не нашли такой город, попробуйте ещё раз.",
		MsgCityExpired:      "Список городов устарел, напишите город ещё раз.",
		MsgEnterBirthday:    "Введите дату рождения в формате дд.мм.гггг",
		MsgInvalidBirthday:  "Не похоже на дд.мм.гггг, попробуйте ещё раз.",
		MsgAgeOutOfRange:    "Извините, сервис доступен с %d до %d лет.",
		MsgSendPhoto:        "Отправьте своё фото. Лицо должно быть видно.",
		MsgPhotoNoFace:      "На фото не видно лица, отправьте другое.",
		MsgConfirmAgreement: "Почти готово! Прочитайте <a href=\"%s\">соглашение</a> и подтвердите.",
		MsgWaitApproval:     "Спасибо! Анкета ожидает проверки модератором.",
		MsgApproved:         "Анкета одобрена. Удачных знакомств!",
		MsgRejected:         "Анкета отклонена за нарушение правил сообщества.",
		MsgMainMenu:         "Главное меню",
		MsgSettingsMenu:     "Настройки анкеты",
		MsgInvalidChoice:    "Пожалуйста, используйте кнопки ниже.",
		MsgNoCandidates:     "Анкеты закончились, загляните позже.",
		MsgMatch:            "Это взаимно с %s! Напишите: @%s",
		MsgLikeNotice:       "Кому-то понравилась ваша анкета!",
		MsgLikesYouTeaser:   "Вас лайкнули %d раз. Оформите подписку, чтобы увидеть кто.",
		MsgLikesYouEmpty:    "Вас пока никто не лайкнул, продолжайте поиск!",
		MsgNoMatches:        "У вас пока нет пар.",
		MsgUnmatched:        "Пара удалена.",
		MsgChooseTariff:     "Выберите тариф:",
		MsgPaymentLink:      "Оплатите по ссылке: %s\nСсылка действует ограниченное время.",
		MsgPaymentSuccess:   "Оплата получена, подписка активна!",
		MsgPaymentExpired:   "Оплата не завершена. Попробуйте ещё раз из меню.",
		MsgSubExpired:       "Подписка закончилась, вы на бесплатном тарифе.",
		MsgChooseReport:     "Почему вы жалуетесь на эту анкету?",
		MsgReportAccepted:   "Спасибо, жалоба отправлена модераторам.",
		MsgEnterAbout:       "Расскажите о себе (до 1000 символов).",
		MsgAboutTooLong:     "Слишком длинно, уложитесь в 1000 символов.",
		MsgEnterName:        "Как вас называть?",
		MsgChoosePrefGender: "Кого вы ищете?",
		MsgEnterAgeRange:    "Отправьте возраст в формате мин-макс, например 25-35",
		MsgInvalidAgeRange:  "Такой диапазон не подходит, отправьте мин-макс в пределах %d-%d.",
		MsgSaved:            "Сохранено.",
		MsgUnblockSent:      "Запрос на разблокировку отправлен модераторам.",
		MsgUnblockApproved:  "Вы разблокированы, с возвращением!",
		MsgUnblockRejected:  "Запрос отклонён. Напишите в поддержку: %s",
		MsgConfirmDelete:    "Удалить аккаунт? Анкета и пары будут потеряны.",
		MsgAccountDeleted:   "Аккаунт удалён. Отправьте /start, чтобы зарегистрироваться снова.",
		MsgEnterPrefCity:    "В каком городе искать? Напишите название города.",
		MsgGenericFailure:   "Что-то пошло не так, попробуйте позже.",
	},
}

var blockTexts = map[string]map[enums.BlockReason]string{
	"en": {
		enums.BlockReasonManyComplaints:  "Your account is blocked after multiple complaints.",
		enums.BlockReasonFaceNotDetected: "Your account is blocked: we could not verify your photos.",
		enums.BlockReasonCommunityRules:  "Your account is blocked for violating community rules.",
		enums.BlockReasonDeletedHimself:  "This account was deleted.",
	},
	"ru": {
		enums.BlockReasonManyComplaints:  "Аккаунт заблокирован из-за жалоб пользователей.",
		enums.BlockReasonFaceNotDetected: "Аккаунт заблокирован: не удалось проверить ваши фото.",
		enums.BlockReasonCommunityRules:  "Аккаунт заблокирован за нарушение правил сообщества.",
		enums.BlockReasonDeletedHimself:  "Этот аккаунт удалён.",
	},
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if _, ok := texts[locale]; !ok {
		return "en"
	}
	return locale
}

// T renders a localized message. Unknown keys come back as the key
// itself so a missing translation is visible instead of silent.
func T(locale, key string, args ...interface{}) string {
	table := texts[normalizeLocale(locale)]
	tpl, ok := table[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}

// BlockMessage is the fixed answer a restricted account receives for
// any input.
func BlockMessage(locale string, reason enums.BlockReason, supportContact string) string {
	table := blockTexts[normalizeLocale(locale)]
	msg, ok := table[reason]
	if !ok {
		if normalizeLocale(locale) == "ru" {
			msg = "Аккаунт заблокирован."
		} else {
			msg = "Your account is blocked."
		}
	}
	if supportContact == "" {
		return msg
	}
	if normalizeLocale(locale) == "ru" {
		return msg + "\nПоддержка: " + supportContact
	}
	return msg + "\nSupport: " + supportContact
}
