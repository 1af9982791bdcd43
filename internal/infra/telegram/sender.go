package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Sender delivers notifications to Telegram chats. Recipient addresses are
// decimal chat ids.
type Sender struct {
	bot    *telebot.Bot
	logger *logrus.Logger
}

func NewSender(token string, logger *logrus.Logger) (*Sender, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Sender{bot: bot, logger: logger}, nil
}

// Send posts the message to every recipient chat. Recipients are
// independent: one bad chat id fails the whole send so the record stays
// eligible, matching the per-record at-least-once semantics.
func (s *Sender) Send(ctx context.Context, recipients []string, subject, body string) error {
	text := fmt.Sprintf("%s\n\n%s", subject, body)
	for _, recipient := range recipients {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("telegram send cancelled: %w", err)
		}
		chatID, err := strconv.ParseInt(recipient, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid Telegram chat id %q: %w", recipient, err)
		}
		if _, err := s.bot.Send(&telebot.Chat{ID: chatID}, text); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat %d: %w", chatID, err)
		}
		s.logger.WithField("chat_id", chatID).Debug("Telegram notification sent")
	}
	return nil
}
