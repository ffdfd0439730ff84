package ui

import (
	"fmt"
	"strconv"

	"github.com/moonssword/dating-bot/internal/config"
	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/telegram"
)

// Button labels are the accepted vocabulary of reply-keyboard states.
// Lookup helpers below translate a pressed label back into intent.

const (
	BtnSearch   = "btn_search"
	BtnMatches  = "btn_matches"
	BtnLikesYou = "btn_likes_you"
	BtnSettings = "btn_settings"
	BtnPremium  = "btn_premium"
	BtnBack     = "btn_back"
	BtnName     = "btn_name"
	BtnBirthday = "btn_birthday"
	BtnAbout    = "btn_about"
	BtnPhoto    = "btn_photo"
	BtnCity     = "btn_city"
	BtnPrefs    = "btn_prefs"
	BtnAgeRange = "btn_age_range"
	BtnLocation = "btn_location"
	BtnDelete   = "btn_delete"
)

var labels = map[string]map[string]string{
	"en": {
		BtnSearch:   "🔍 Search",
		BtnMatches:  "❤️ Matches",
		BtnLikesYou: "👀 Who liked you",
		BtnSettings: "⚙️ Settings",
		BtnPremium:  "⭐ Premium",
		BtnBack:     "⬅️ Back",
		BtnName:     "Name",
		BtnBirthday: "Birthday",
		BtnAbout:    "About me",
		BtnPhoto:    "Photo",
		BtnCity:     "City",
		BtnPrefs:    "Looking for",
		BtnAgeRange: "Age range",
		BtnLocation: "📍 Share location",
		BtnDelete:   "Delete account",
	},
	"ru": {
		BtnSearch:   "🔍 Поиск",
		BtnMatches:  "❤️ Пары",
		BtnLikesYou: "👀 Кто лайкнул",
		BtnSettings: "⚙️ Настройки",
		BtnPremium:  "⭐ Премиум",
		BtnBack:     "⬅️ Назад",
		BtnName:     "Имя",
		BtnBirthday: "Дата рождения",
		BtnAbout:    "О себе",
		BtnPhoto:    "Фото",
		BtnCity:     "Город",
		BtnPrefs:    "Кого ищу",
		BtnAgeRange: "Возраст",
		BtnLocation: "📍 Отправить геолокацию",
		BtnDelete:   "Удалить аккаунт",
	},
}

func Label(locale, key string) string {
	table := labels[normalizeLocale(locale)]
	if label, ok := table[key]; ok {
		return label
	}
	return key
}

// ButtonKey resolves a pressed reply-keyboard label back to its key,
// trying the account locale first and then every other locale so a
// stale keyboard in the old language still works.
func ButtonKey(locale, pressed string) (string, bool) {
	for key, label := range labels[normalizeLocale(locale)] {
		if label == pressed {
			return key, true
		}
	}
	for loc, table := range labels {
		if loc == normalizeLocale(locale) {
			continue
		}
		for key, label := range table {
			if label == pressed {
				return key, true
			}
		}
	}
	return "", false
}

func LanguageKeyboard() *telegram.Keyboard {
	return &telegram.Keyboard{
		Inline: true,
		Rows: [][]telegram.Button{{
			{Label: "English", Data: "lang:en"},
			{Label: "Русский", Data: "lang:ru"},
		}},
	}
}

func GenderKeyboard(locale string) *telegram.Keyboard {
	male, female := "👨 Male", "👩 Female"
	if normalizeLocale(locale) == "ru" {
		male, female = "👨 Мужчина", "👩 Женщина"
	}
	return &telegram.Keyboard{
		Inline: true,
		Rows: [][]telegram.Button{{
			{Label: male, Data: "gender:male"},
			{Label: female, Data: "gender:female"},
		}},
	}
}

func LocationKeyboard(locale string) *telegram.Keyboard {
	return &telegram.Keyboard{
		OneTime: true,
		Rows: [][]telegram.Button{{
			{Label: Label(locale, BtnLocation), RequestLocation: true},
		}},
	}
}

// CityOptionsKeyboard lists geocoder hits; callback data references the
// redis token plus the option index.
func CityOptionsKeyboard(token string, options []model.Location) *telegram.Keyboard {
	rows := make([][]telegram.Button, 0, len(options))
	for i, opt := range options {
		label := opt.Locality
		if opt.State != "" {
			label += ", " + opt.State
		}
		if opt.Country != "" {
			label += ", " + opt.Country
		}
		rows = append(rows, []telegram.Button{{
			Label: label,
			Data:  fmt.Sprintf("city:%s:%d", token, i),
		}})
	}
	return &telegram.Keyboard{Inline: true, Rows: rows}
}

func AgreementKeyboard(locale, agreementURL string) *telegram.Keyboard {
	read, agree := "📄 Agreement", "✅ I agree"
	if normalizeLocale(locale) == "ru" {
		read, agree = "📄 Соглашение", "✅ Согласен"
	}
	return &telegram.Keyboard{
		Inline: true,
		Rows: [][]telegram.Button{
			{{Label: read, URL: agreementURL}},
			{{Label: agree, Data: "agree"}},
		},
	}
}

func MainMenuKeyboard(locale string) *telegram.Keyboard {
	return &telegram.Keyboard{
		Rows: [][]telegram.Button{
			{{Label: Label(locale, BtnSearch)}, {Label: Label(locale, BtnMatches)}},
			{{Label: Label(locale, BtnLikesYou)}, {Label: Label(locale, BtnPremium)}},
			{{Label: Label(locale, BtnSettings)}},
		},
	}
}

func SettingsKeyboard(locale string) *telegram.Keyboard {
	return &telegram.Keyboard{
		Rows: [][]telegram.Button{
			{{Label: Label(locale, BtnName)}, {Label: Label(locale, BtnBirthday)}},
			{{Label: Label(locale, BtnAbout)}, {Label: Label(locale, BtnPhoto)}},
			{{Label: Label(locale, BtnCity)}, {Label: Label(locale, BtnPrefs)}},
			{{Label: Label(locale, BtnAgeRange)}, {Label: Label(locale, BtnDelete)}},
			{{Label: Label(locale, BtnBack)}},
		},
	}
}

func BrowseKeyboard(candidateID int64) *telegram.Keyboard {
	id := strconv.FormatInt(candidateID, 10)
	return &telegram.Keyboard{
		Inline: true,
		Rows: [][]telegram.Button{{
			{Label: "❤️", Data: "like:" + id},
			{Label: "👎", Data: "dislike:" + id},
			{Label: "⚠️", Data: "reportmenu:" + id},
		}},
	}
}

func ReportReasonKeyboard(locale string, targetID int64) *telegram.Keyboard {
	id := strconv.FormatInt(targetID, 10)
	reasons := []struct {
		reason enums.ReportReason
		en, ru string
	}{
		{enums.ReportReasonFakeProfile, "Fake profile", "Фейковая анкета"},
		{enums.ReportReasonSaleGoods, "Selling goods", "Продажа товаров"},
		{enums.ReportReasonInappropriate, "Inappropriate content", "Неприемлемый контент"},
		{enums.ReportReasonMinorUser, "Underage user", "Несовершеннолетний"},
		{enums.ReportReasonThreats, "Threats", "Угрозы"},
	}

	rows := make([][]telegram.Button, 0, len(reasons))
	for _, r := range reasons {
		label := r.en
		if normalizeLocale(locale) == "ru" {
			label = r.ru
		}
		rows = append(rows, []telegram.Button{{
			Label: label,
			Data:  "report:" + id + ":" + string(r.reason),
		}})
	}
	return &telegram.Keyboard{Inline: true, Rows: rows}
}

func MatchKeyboard(locale string, matchedID int64) *telegram.Keyboard {
	unmatch := "💔 Unmatch"
	if normalizeLocale(locale) == "ru" {
		unmatch = "💔 Убрать пару"
	}
	return &telegram.Keyboard{
		Inline: true,
		Rows: [][]telegram.Button{{
			{Label: unmatch, Data: "unmatch:" + strconv.FormatInt(matchedID, 10)},
		}},
	}
}

func TariffKeyboard(locale string, plans []config.PlanConfig, currency string) *telegram.Keyboard {
	rows := make([][]telegram.Button, 0, len(plans))
	for _, plan := range plans {
		label := fmt.Sprintf("%s — %d %s", planTitle(locale, plan.Code), plan.Amount, currency)
		rows = append(rows, []telegram.Button{{
			Label: label,
			Data:  "pay:" + plan.Code,
		}})
	}
	return &telegram.Keyboard{Inline: true, Rows: rows}
}

func planTitle(locale, code string) string {
	titles := map[string]map[string]string{
		"en": {
			"plus_week":        "Plus, 1 week",
			"plus_month":       "Plus, 1 month",
			"premium_month":    "Premium, 1 month",
			"premium_halfyear": "Premium, 6 months",
			"premium_year":     "Premium, 1 year",
		},
		"ru": {
			"plus_week":        "Plus, 1 неделя",
			"plus_month":       "Plus, 1 месяц",
			"premium_month":    "Premium, 1 месяц",
			"premium_halfyear": "Premium, 6 месяцев",
			"premium_year":     "Premium, 1 год",
		},
	}
	if title, ok := titles[normalizeLocale(locale)][code]; ok {
		return title
	}
	return code
}

// ModerationCardKeyboard is attached to approval cards in the admin
// chat.
func ModerationCardKeyboard(accountID int64) *telegram.Keyboard {
	id := strconv.FormatInt(accountID, 10)
	return &telegram.Keyboard{
		Inline: true,
		Rows: [][]telegram.Button{{
			{Label: "✅ Approve", Data: "mod:approve:" + id},
			{Label: "❌ Reject", Data: "mod:reject:" + id},
		}},
	}
}

func UnblockRequestKeyboard(locale string) *telegram.Keyboard {
	label := "🙏 Request unblock"
	if normalizeLocale(locale) == "ru" {
		label = "🙏 Запросить разблокировку"
	}
	return &telegram.Keyboard{
		Inline: true,
		Rows:   [][]telegram.Button{{{Label: label, Data: "unblock:request"}}},
	}
}

func UnblockReviewKeyboard(accountID int64) *telegram.Keyboard {
	id := strconv.FormatInt(accountID, 10)
	return &telegram.Keyboard{
		Inline: true,
		Rows: [][]telegram.Button{{
			{Label: "✅ Unblock", Data: "unblock:approve:" + id},
			{Label: "❌ Keep blocked", Data: "unblock:reject:" + id},
		}},
	}
}

func DeleteConfirmKeyboard(locale string) *telegram.Keyboard {
	label := "🗑 Yes, delete my account"
	if normalizeLocale(locale) == "ru" {
		label = "🗑 Да, удалить аккаунт"
	}
	return &telegram.Keyboard{
		Inline: true,
		Rows:   [][]telegram.Button{{{Label: label, Data: "account:delete"}}},
	}
}
