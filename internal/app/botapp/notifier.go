package botapp

import (
	"context"
	"fmt"

	"github.com/moonssword/dating-bot/internal/infra/telegram"
	pgrepo "github.com/moonssword/dating-bot/internal/repo/postgres"
	"github.com/moonssword/dating-bot/internal/ui"
)

// botNotifier delivers out-of-band messages: moderation cards to the
// admin chat and verdicts or subscription notices to account chats. It
// resolves telegram chat ids through the account repo so services stay
// transport-free.
type botNotifier struct {
	bot         *telegram.Bot
	accounts    *pgrepo.AccountRepo
	adminChatID int64
}

func newBotNotifier(bot *telegram.Bot, accounts *pgrepo.AccountRepo, adminChatID int64) *botNotifier {
	return &botNotifier{bot: bot, accounts: accounts, adminChatID: adminChatID}
}

func (n *botNotifier) NotifyAdmin(ctx context.Context, text, photoURL string, keyboard *telegram.Keyboard) error {
	if n.adminChatID == 0 {
		return fmt.Errorf("admin chat id is not configured")
	}

	if photoURL != "" {
		if _, err := n.bot.SendPhotoURL(ctx, n.adminChatID, photoURL, text, keyboard); err != nil {
			return fmt.Errorf("send admin card: %w", err)
		}
		return nil
	}

	if _, err := n.bot.SendText(ctx, n.adminChatID, text, keyboard); err != nil {
		return fmt.Errorf("send admin message: %w", err)
	}
	return nil
}

func (n *botNotifier) NotifyAccount(ctx context.Context, accountID int64, text string, keyboard *telegram.Keyboard) error {
	account, err := n.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("resolve account %d: %w", accountID, err)
	}

	if _, err := n.bot.SendText(ctx, account.TelegramID, text, keyboard); err != nil {
		return fmt.Errorf("notify account %d: %w", accountID, err)
	}
	return nil
}

func (n *botNotifier) NotifyAccountPhoto(ctx context.Context, accountID int64, photoURL, caption string, keyboard *telegram.Keyboard) error {
	account, err := n.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("resolve account %d: %w", accountID, err)
	}

	if _, err := n.bot.SendPhotoURL(ctx, account.TelegramID, photoURL, caption, keyboard); err != nil {
		return fmt.Errorf("notify account %d: %w", accountID, err)
	}
	return nil
}

func (n *botNotifier) NotifySubscriptionExpired(ctx context.Context, accountID int64) error {
	account, err := n.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("resolve account %d: %w", accountID, err)
	}

	text := ui.T(account.Locale, ui.MsgSubExpired)
	if _, err := n.bot.SendText(ctx, account.TelegramID, text, nil); err != nil {
		return fmt.Errorf("notify account %d: %w", accountID, err)
	}
	return nil
}
