package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/MarketRegime/internal/database"
	"github.com/Alias1177/MarketRegime/internal/regime"
)

const maxHistory = 20

// Evaluator produces a fresh evaluation on demand
type Evaluator interface {
	RunOnce(ctx context.Context) (*regime.Evaluation, error)
}

// HistorySource lists stored evaluations, newest first
type HistorySource interface {
	History(ctx context.Context, limit int) ([]database.EvaluationRecord, error)
}

// Bot answers chat commands about the current regime
type Bot struct {
	bot     Sender
	eval    Evaluator
	history HistorySource
	logger  zerolog.Logger
}

// NewBot builds a command handler. history may be nil.
func NewBot(bot Sender, eval Evaluator, history HistorySource) *Bot {
	return &Bot{
		bot:     bot,
		eval:    eval,
		history: history,
		logger:  log.With().Str("component", "telegram_bot").Logger(),
	}
}

// Serve handles updates until ctx is done or the channel closes
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// handleMessage processes incoming commands
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	var text string
	switch message.Command() {
	case "start", "help":
		text = "Market regime bot.\n\n/regime - classify the latest session\n/history [n] - recent stored regimes"
	case "regime":
		text = b.currentRegime(ctx)
	case "history":
		text = b.recentHistory(ctx, message.CommandArguments())
	default:
		if !message.IsCommand() {
			return
		}
		text = "Unknown command. Try /help"
	}

	if _, err := b.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

func (b *Bot) currentRegime(ctx context.Context) string {
	ev, err := b.eval.RunOnce(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("On-demand evaluation failed")
		return "Could not evaluate the market right now. Try again later."
	}
	return regime.FormatReport(ev)
}

func (b *Bot) recentHistory(ctx context.Context, arg string) string {
	if b.history == nil {
		return "History is not available: no database configured."
	}

	limit := 5
	if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil && n > 0 {
		limit = min(n, maxHistory)
	}

	records, err := b.history.History(ctx, limit)
	if err != nil {
		b.logger.Error().Err(err).Msg("Loading history failed")
		return "Could not load history."
	}
	if len(records) == 0 {
		return "No evaluations stored yet."
	}

	var sb strings.Builder
	sb.WriteString("Recent regimes:\n")
	for _, rec := range records {
		fmt.Fprintf(&sb, "%s  %s\n", rec.AsOf, rec.Regime.Label())
	}
	return sb.String()
}
