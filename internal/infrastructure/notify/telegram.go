package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends to a chat id given as the recipient.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier authenticates the bot. An empty endpoint uses the public
// Bot API; otherwise it must contain the two %s verbs for token and method.
func NewTelegramNotifier(token, endpoint string) (*TelegramNotifier, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

func (n *TelegramNotifier) Push(ctx context.Context, recipientID, text string) error {
	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", recipientID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// The bot API takes no context; the HTTP client timeout bounds the
	// abandoned send.
	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
