package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

type Sender struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	Locale    string
	IsBot     bool
}

type CommandUpdate struct {
	ChatID  int64
	From    Sender
	Command string
	Args    string
}

type TextUpdate struct {
	ChatID int64
	From   Sender
	Text   string
}

type PhotoUpdate struct {
	ChatID  int64
	From    Sender
	FileID  string
	Caption string
}

type LocationUpdate struct {
	ChatID    int64
	From      Sender
	Latitude  float64
	Longitude float64
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	From       Sender
	Data       string
}

type Handlers struct {
	OnCommand  func(context.Context, CommandUpdate) error
	OnText     func(context.Context, TextUpdate) error
	OnPhoto    func(context.Context, PhotoUpdate) error
	OnLocation func(context.Context, LocationUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error
}

// Button is a single labeled key. Data set means an inline callback
// button, URL set means an inline link button, neither means a plain
// reply keyboard key. RequestLocation only applies to reply keyboards.
type Button struct {
	Label           string
	Data            string
	URL             string
	RequestLocation bool
}

type Keyboard struct {
	Rows     [][]Button
	Inline   bool
	Remove   bool
	OneTime  bool
	Reusable bool
}

func RemoveKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

func NewBot(token string) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api: api,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

func (b *Bot) Username() string {
	if b == nil || b.api == nil {
		return ""
	}
	return b.api.Self.UserName
}

func senderFrom(u *tgbotapi.User) Sender {
	if u == nil {
		return Sender{}
	}
	return Sender{
		UserID:    u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Locale:    u.LanguageCode,
		IsBot:     u.IsBot,
	}
}

func (b *Bot) Listen(ctx context.Context, handlers Handlers, dispatch func(func() error)) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if dispatch == nil {
		dispatch = func(fn func() error) { _ = fn() }
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			if fn := routeUpdate(ctx, handlers, update); fn != nil {
				dispatch(fn)
			}
		}
	}
}

func routeUpdate(ctx context.Context, handlers Handlers, update tgbotapi.Update) func() error {
	if msg := update.Message; msg != nil && msg.From != nil {
		from := senderFrom(msg.From)

		if msg.IsCommand() && handlers.OnCommand != nil {
			u := CommandUpdate{
				ChatID:  msg.Chat.ID,
				From:    from,
				Command: msg.Command(),
				Args:    msg.CommandArguments(),
			}
			return func() error { return handlers.OnCommand(ctx, u) }
		}

		if len(msg.Photo) > 0 && handlers.OnPhoto != nil {
			// The last size in the array is the largest variant.
			u := PhotoUpdate{
				ChatID:  msg.Chat.ID,
				From:    from,
				FileID:  msg.Photo[len(msg.Photo)-1].FileID,
				Caption: msg.Caption,
			}
			return func() error { return handlers.OnPhoto(ctx, u) }
		}

		if msg.Location != nil && handlers.OnLocation != nil {
			u := LocationUpdate{
				ChatID:    msg.Chat.ID,
				From:      from,
				Latitude:  msg.Location.Latitude,
				Longitude: msg.Location.Longitude,
			}
			return func() error { return handlers.OnLocation(ctx, u) }
		}

		if text := strings.TrimSpace(msg.Text); text != "" && handlers.OnText != nil {
			u := TextUpdate{ChatID: msg.Chat.ID, From: from, Text: text}
			return func() error { return handlers.OnText(ctx, u) }
		}

		return nil
	}

	if cb := update.CallbackQuery; cb != nil && cb.From != nil && handlers.OnCallback != nil {
		u := CallbackUpdate{
			CallbackID: cb.ID,
			From:       senderFrom(cb.From),
			Data:       cb.Data,
		}
		if cb.Message != nil {
			u.ChatID = cb.Message.Chat.ID
			u.MessageID = cb.Message.MessageID
		}
		return func() error { return handlers.OnCallback(ctx, u) }
	}

	return nil
}

func buildMarkup(kb *Keyboard) interface{} {
	if kb == nil {
		return nil
	}
	if kb.Remove {
		return tgbotapi.NewRemoveKeyboard(false)
	}

	if kb.Inline {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				if btn.URL != "" {
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(btn.Label, btn.URL))
					continue
				}
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
			}
			rows = append(rows, btns)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		btns := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.RequestLocation {
				btns = append(btns, tgbotapi.NewKeyboardButtonLocation(btn.Label))
				continue
			}
			btns = append(btns, tgbotapi.NewKeyboardButton(btn.Label))
		}
		rows = append(rows, btns)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.OneTimeKeyboard = kb.OneTime
	markup.ResizeKeyboard = true
	return markup
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string, kb *Keyboard) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup := buildMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return sent.MessageID, nil
}

func (b *Bot) SendPhotoURL(ctx context.Context, chatID int64, photoURL, caption string, kb *Keyboard) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if markup := buildMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send telegram photo: %w", err)
	}

	_ = ctx
	return sent.MessageID, nil
}

func (b *Bot) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit telegram message: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("delete telegram message: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) DownloadPhoto(ctx context.Context, fileID string) (io.ReadCloser, int64, string, string, error) {
	if b == nil || b.api == nil {
		return nil, 0, "", "", fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, 0, "", "", fmt.Errorf("file id is required")
	}

	tgFile, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, 0, "", "", fmt.Errorf("get telegram file: %w", err)
	}

	fileURL := tgFile.Link(b.api.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, 0, "", "", fmt.Errorf("create file request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", "", fmt.Errorf("download telegram file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, 0, "", "", fmt.Errorf("unexpected telegram file status: %d", resp.StatusCode)
	}

	name := path.Base(strings.TrimSpace(tgFile.FilePath))
	if name == "." || name == "/" || name == "" {
		name = "photo.jpg"
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" {
		contentType = "image/jpeg"
	}

	return resp.Body, resp.ContentLength, name, contentType, nil
}
