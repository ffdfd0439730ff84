package classify

import (
	"strconv"
	"strings"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/infra/telegram"
)

// Kind discriminates the normalized inbound event.
type Kind string

const (
	KindCommand  Kind = "command"
	KindText     Kind = "text"
	KindLocation Kind = "location"
	KindPhoto    Kind = "photo"
	KindCallback Kind = "callback"
)

// Event is one normalized transport update. Exactly the fields matching
// Kind are populated.
type Event struct {
	Kind   Kind
	ChatID int64
	From   telegram.Sender

	Command string
	Args    string

	Text string

	Latitude  float64
	Longitude float64

	PhotoFileID string

	CallbackID string
	MessageID  int
	Action     Action
}

// ActionKind discriminates decoded callback payloads.
type ActionKind string

const (
	ActionUnknown        ActionKind = "unknown"
	ActionSelectLanguage ActionKind = "select_language"
	ActionSelectGender   ActionKind = "select_gender"
	ActionAgree          ActionKind = "agree"
	ActionCityOption     ActionKind = "city_option"
	ActionLike           ActionKind = "like"
	ActionDislike        ActionKind = "dislike"
	ActionReport         ActionKind = "report"
	ActionReportMenu     ActionKind = "report_menu"
	ActionUnmatch        ActionKind = "unmatch"
	ActionPay            ActionKind = "pay"
	ActionModApprove     ActionKind = "mod_approve"
	ActionModReject      ActionKind = "mod_reject"
	ActionUnblockRequest ActionKind = "unblock_request"
	ActionUnblockApprove ActionKind = "unblock_approve"
	ActionUnblockReject  ActionKind = "unblock_reject"
	ActionDeleteAccount  ActionKind = "delete_account"
)

// Action is a decoded callback payload. TargetID is the account or
// candidate the action points at, where the payload carries one.
type Action struct {
	Kind     ActionKind
	TargetID int64
	Language string
	Gender   enums.Gender
	Reason   enums.ReportReason
	CityKey  string
	CityIdx  int
	PlanCode string
}

func FromCommand(u telegram.CommandUpdate) Event {
	return Event{
		Kind:    KindCommand,
		ChatID:  u.ChatID,
		From:    u.From,
		Command: strings.ToLower(u.Command),
		Args:    strings.TrimSpace(u.Args),
	}
}

func FromText(u telegram.TextUpdate) Event {
	return Event{
		Kind:   KindText,
		ChatID: u.ChatID,
		From:   u.From,
		Text:   u.Text,
	}
}

func FromLocation(u telegram.LocationUpdate) Event {
	return Event{
		Kind:      KindLocation,
		ChatID:    u.ChatID,
		From:      u.From,
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
	}
}

func FromPhoto(u telegram.PhotoUpdate) Event {
	return Event{
		Kind:        KindPhoto,
		ChatID:      u.ChatID,
		From:        u.From,
		PhotoFileID: u.FileID,
	}
}

func FromCallback(u telegram.CallbackUpdate) Event {
	return Event{
		Kind:       KindCallback,
		ChatID:     u.ChatID,
		From:       u.From,
		CallbackID: u.CallbackID,
		MessageID:  u.MessageID,
		Action:     DecodeCallback(u.Data),
	}
}

// DecodeCallback parses callback data of the form "verb:arg[:arg]".
// Anything that does not parse cleanly maps to ActionUnknown so state
// handlers never see raw payloads.
func DecodeCallback(data string) Action {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) == 0 || parts[0] == "" {
		return Action{Kind: ActionUnknown}
	}

	switch parts[0] {
	case "lang":
		if len(parts) != 2 || parts[1] == "" {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: ActionSelectLanguage, Language: parts[1]}

	case "gender":
		if len(parts) != 2 {
			return Action{Kind: ActionUnknown}
		}
		gender, ok := enums.ParseGender(parts[1])
		if !ok {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: ActionSelectGender, Gender: gender}

	case "agree":
		return Action{Kind: ActionAgree}

	case "city":
		if len(parts) != 3 {
			return Action{Kind: ActionUnknown}
		}
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < 0 || parts[1] == "" {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: ActionCityOption, CityKey: parts[1], CityIdx: idx}

	case "like", "dislike", "unmatch":
		if len(parts) != 2 {
			return Action{Kind: ActionUnknown}
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || id <= 0 {
			return Action{Kind: ActionUnknown}
		}
		kind := map[string]ActionKind{
			"like":    ActionLike,
			"dislike": ActionDislike,
			"unmatch": ActionUnmatch,
		}[parts[0]]
		return Action{Kind: kind, TargetID: id}

	case "reportmenu":
		if len(parts) != 2 {
			return Action{Kind: ActionUnknown}
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || id <= 0 {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: ActionReportMenu, TargetID: id}

	case "report":
		if len(parts) != 3 {
			return Action{Kind: ActionUnknown}
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || id <= 0 {
			return Action{Kind: ActionUnknown}
		}
		reason, ok := enums.ParseReportReason(parts[2])
		if !ok {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: ActionReport, TargetID: id, Reason: reason}

	case "pay":
		if len(parts) != 2 || parts[1] == "" {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: ActionPay, PlanCode: parts[1]}

	case "mod":
		if len(parts) != 3 {
			return Action{Kind: ActionUnknown}
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || id <= 0 {
			return Action{Kind: ActionUnknown}
		}
		switch parts[1] {
		case "approve":
			return Action{Kind: ActionModApprove, TargetID: id}
		case "reject":
			return Action{Kind: ActionModReject, TargetID: id}
		}
		return Action{Kind: ActionUnknown}

	case "unblock":
		if len(parts) == 2 && parts[1] == "request" {
			return Action{Kind: ActionUnblockRequest}
		}
		if len(parts) != 3 {
			return Action{Kind: ActionUnknown}
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || id <= 0 {
			return Action{Kind: ActionUnknown}
		}
		switch parts[1] {
		case "approve":
			return Action{Kind: ActionUnblockApprove, TargetID: id}
		case "reject":
			return Action{Kind: ActionUnblockReject, TargetID: id}
		}
		return Action{Kind: ActionUnknown}

	case "account":
		if len(parts) == 2 && parts[1] == "delete" {
			return Action{Kind: ActionDeleteAccount}
		}
		return Action{Kind: ActionUnknown}
	}

	return Action{Kind: ActionUnknown}
}
