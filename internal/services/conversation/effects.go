package conversation

import (
	"time"

	"github.com/moonssword/dating-bot/internal/infra/telegram"
)

// Effect is one outbound action produced by a transition. The state
// machine stays pure: it returns effects and the caller talks to the
// transport.
type Effect interface {
	isEffect()
}

// SendMessage delivers text to the chat the event came from.
// TrackPrompt asks the executor to report the sent message id back via
// SetLastPrompt. ExpireAfter above zero schedules deletion.
type SendMessage struct {
	ChatID      int64
	Text        string
	Keyboard    *telegram.Keyboard
	TrackPrompt bool
	ExpireAfter time.Duration
}

type SendPhoto struct {
	ChatID      int64
	PhotoURL    string
	Caption     string
	Keyboard    *telegram.Keyboard
	TrackPrompt bool
}

type EditMessage struct {
	ChatID    int64
	MessageID int
	Text      string
}

type DeleteMessage struct {
	ChatID    int64
	MessageID int
}

type AnswerCallback struct {
	CallbackID string
	Text       string
}

// NotifyAccount targets another account's private chat. The executor
// resolves the telegram chat id. PhotoURL set turns the notice into a
// photo message with Text as the caption.
type NotifyAccount struct {
	AccountID int64
	Text      string
	PhotoURL  string
	Keyboard  *telegram.Keyboard
}

// PollPayment asks the executor to start polling the provider for the
// freshly created order.
type PollPayment struct {
	OrderID   string
	AccountID int64
}

func (SendMessage) isEffect()    {}
func (SendPhoto) isEffect()      {}
func (EditMessage) isEffect()    {}
func (DeleteMessage) isEffect()  {}
func (AnswerCallback) isEffect() {}
func (NotifyAccount) isEffect()  {}
func (PollPayment) isEffect()    {}
