package enums

// ChatState is the per-account conversation position. Registration
// walks the select_* chain in order; states below main_menu are only
// reachable once the account is active.
type ChatState string

const (
	ChatStateSelectLanguage   ChatState = "select_language"
	ChatStateSelectGender     ChatState = "select_gender"
	ChatStateSelectCity       ChatState = "select_city"
	ChatStateChooseCityOption ChatState = "choose_city_option"
	ChatStateEnterBirthday    ChatState = "enter_birthday"
	ChatStateSelectPhoto      ChatState = "select_photo"
	ChatStateConfirmAgreement ChatState = "confirm_agreement"

	ChatStateMainMenu        ChatState = "main_menu"
	ChatStateSettingsMenu    ChatState = "settings_menu"
	ChatStateViewingProfiles ChatState = "viewing_profiles"
	ChatStateViewingMatches  ChatState = "viewing_matches"
	ChatStateLikesYou        ChatState = "likes_you"

	ChatStateEnterProfileName ChatState = "enter_profilename"
	ChatStateEnterAboutMe     ChatState = "enter_aboutme"

	ChatStateSelectPreferGender ChatState = "select_prefer_gender"
	ChatStateSetAgeRange        ChatState = "set_age_range"
	ChatStateSetPreferLocation  ChatState = "set_prefer_location"

	ChatStateSelectReportReason ChatState = "select_report_reason"
	ChatStateSelectTariff       ChatState = "select_tariff"
)

// Registration reports whether the state belongs to the sign-up chain.
func (s ChatState) Registration() bool {
	switch s {
	case ChatStateSelectLanguage, ChatStateSelectGender, ChatStateSelectCity,
		ChatStateChooseCityOption, ChatStateEnterBirthday, ChatStateSelectPhoto,
		ChatStateConfirmAgreement:
		return true
	default:
		return false
	}
}

// Parent returns the state the BACK button leads to. Registration
// states have no parent; BACK is not part of their vocabulary.
func (s ChatState) Parent() ChatState {
	switch s {
	case ChatStateSettingsMenu, ChatStateViewingProfiles, ChatStateViewingMatches,
		ChatStateLikesYou, ChatStateSelectTariff:
		return ChatStateMainMenu
	case ChatStateEnterProfileName, ChatStateEnterAboutMe,
		ChatStateSelectPreferGender, ChatStateSetAgeRange, ChatStateSetPreferLocation:
		return ChatStateSettingsMenu
	case ChatStateSelectReportReason:
		return ChatStateViewingProfiles
	default:
		return ChatStateMainMenu
	}
}
