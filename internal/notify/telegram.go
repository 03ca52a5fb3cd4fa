// Package notify sends regime-change alerts to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/MarketRegime/internal/regime"
)

// Sender is the part of the bot API the notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts regime changes to one chat
type Telegram struct {
	bot    Sender
	chatID int64
	logger zerolog.Logger
}

// NewTelegram connects to the bot API with the given token
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}

	return NewTelegramWithSender(bot, chatID), nil
}

// NewTelegramWithSender wraps an existing sender
func NewTelegramWithSender(bot Sender, chatID int64) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}
}

// NotifyChange sends the transition from previous to the evaluated regime
func (t *Telegram) NotifyChange(ctx context.Context, previous regime.Code, ev *regime.Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatChange(previous, ev))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error().Err(err).Int64("chat_id", t.chatID).Msg("Failed to send regime alert")
		return fmt.Errorf("sending telegram message: %w", err)
	}

	t.logger.Info().
		Str("from", previous.String()).
		Str("to", ev.Regime.String()).
		Msg("Regime alert sent")
	return nil
}

// FormatChange builds the alert text
func FormatChange(previous regime.Code, ev *regime.Evaluation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 *Market regime change* (%s)\n\n", ev.AsOf)
	fmt.Fprintf(&b, "%s ➡️ *%s*\n", previous.Label(), ev.Regime.Label())

	if len(ev.Qualified) > 1 {
		labels := make([]string, 0, len(ev.Qualified)-1)
		for _, c := range ev.Qualified[1:] {
			labels = append(labels, c.Label())
		}
		fmt.Fprintf(&b, "Also qualified: %s\n", strings.Join(labels, ", "))
	}

	if r, ok := ev.Result(ev.Regime); ok && r.SoftGate {
		fmt.Fprintf(&b, "Confirmation: %.0f%% (needs %.0f%%)\n", r.AdditionalRatio*100, r.Threshold*100)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "VIX: %s | Put/Call: %s\n", ev.Market.VIX, ev.Market.PutCallRatio)
	fmt.Fprintf(&b, "High-Low: %s | A/D: %s\n", ev.Market.HighLowIndex, ev.Market.AdvanceDecline)

	return b.String()
}
