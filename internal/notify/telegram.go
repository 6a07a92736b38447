// Package notify delivers high-confidence signals to external channels.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pairsight/internal/config"
	apperrors "pairsight/internal/errors"
	"pairsight/internal/models"
	"pairsight/pkg/utils"
)

// telegramAPI is the slice of the bot API the notifier uses; the real
// *tgbotapi.BotAPI satisfies it.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts signal messages to a Telegram chat.
type TelegramNotifier struct {
	bot    telegramAPI
	chatID int64
	retry  utils.RetryConfig
}

// NewTelegramNotifier creates a notifier from config. Returns an error when
// the channel is enabled but not fully configured.
func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, "telegram bot_token and chat_id required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, apperrors.Wrap(err, "creating telegram bot")
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		retry:  utils.DefaultRetryConfig(),
	}, nil
}

// NotifySignal sends one formatted signal message, retrying transient
// delivery failures.
func (t *TelegramNotifier) NotifySignal(ctx context.Context, analysis *models.PairAnalysis) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSignalMessage(analysis))
	msg.ParseMode = tgbotapi.ModeMarkdown

	return utils.Retry(ctx, t.retry, func() error {
		_, err := t.bot.Send(msg)
		return err
	})
}

// FormatSignalMessage renders the Telegram message body for a signal.
func FormatSignalMessage(a *models.PairAnalysis) string {
	sig := a.Signal

	emoji := "🟢"
	if sig.Direction == models.DirectionShort {
		emoji = "🔴"
	}

	return fmt.Sprintf(
		"%s *%s %s* (%.1f%% confidence)\n"+
			"Price: %.6g\n"+
			"Entry: %.6g\n"+
			"Target: %.6g\n"+
			"Stop: %.6g\n"+
			"R/R: %.2f",
		emoji, sig.Direction, a.Symbol, sig.Confidence,
		a.Price, sig.Entry, sig.TakeProfit, sig.StopLoss, sig.RiskReward,
	)
}
