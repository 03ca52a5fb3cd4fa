package main

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/MarketRegime/internal/notify"
	"github.com/Alias1177/MarketRegime/internal/watch"
)

func botCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Answer /regime and /history in Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.Telegram.BotToken == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN not set in environment")
			}

			opts, db, closeFn, err := a.watchOptions(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			svc, err := watch.NewService(opts)
			if err != nil {
				return err
			}

			api, err := tgbotapi.NewBotAPI(a.cfg.Telegram.BotToken)
			if err != nil {
				return fmt.Errorf("failed to initialize Telegram bot: %w", err)
			}
			log.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

			var history notify.HistorySource
			if db != nil {
				history = db
			}

			updateConfig := tgbotapi.NewUpdate(0)
			updateConfig.Timeout = 60
			updates := api.GetUpdatesChan(updateConfig)

			go func() {
				<-ctx.Done()
				api.StopReceivingUpdates()
			}()

			return notify.NewBot(api, svc, history).Serve(ctx, updates)
		},
	}
}
