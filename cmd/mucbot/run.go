package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/quailyquaily/mucbot/internal/airesponder"
	"github.com/quailyquaily/mucbot/internal/bot"
	"github.com/quailyquaily/mucbot/internal/commands"
	"github.com/quailyquaily/mucbot/internal/fsstore"
	"github.com/quailyquaily/mucbot/internal/healthcheck"
	"github.com/quailyquaily/mucbot/internal/infoapi"
	"github.com/quailyquaily/mucbot/internal/ledger"
	"github.com/quailyquaily/mucbot/internal/llmutil"
	"github.com/quailyquaily/mucbot/internal/logutil"
	"github.com/quailyquaily/mucbot/internal/retryutil"
	"github.com/quailyquaily/mucbot/internal/statepaths"
	"github.com/quailyquaily/mucbot/internal/xmpp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the server and serve the configured rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = runBot(ctx, logger)
			if errors.Is(err, bot.ErrRestartRequested) {
				logger.Warn("process_restarting")
				return reexec()
			}
			return err
		},
	}

	cmd.Flags().String("jid", "", "Bot account address (user@domain).")
	cmd.Flags().String("server", "", "Server host (defaults to the JID domain).")
	cmd.Flags().Int("port", 5222, "Server port.")
	cmd.Flags().String("nick", "", "Nickname used in rooms.")
	cmd.Flags().StringArray("room", nil, "Room to join on start (repeatable).")
	cmd.Flags().String("primary-admin", "", "Nickname with permanent admin authority.")
	cmd.Flags().Bool("verify-handshake", false, "Fail startup when the server rejects authentication.")
	cmd.Flags().String("health-listen", "", "Address for the health endpoint (empty disables it).")

	_ = viper.BindPFlag("xmpp.jid", cmd.Flags().Lookup("jid"))
	_ = viper.BindPFlag("xmpp.server", cmd.Flags().Lookup("server"))
	_ = viper.BindPFlag("xmpp.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("bot.nick", cmd.Flags().Lookup("nick"))
	_ = viper.BindPFlag("bot.rooms", cmd.Flags().Lookup("room"))
	_ = viper.BindPFlag("bot.primary_admin", cmd.Flags().Lookup("primary-admin"))
	_ = viper.BindPFlag("xmpp.verify_handshake", cmd.Flags().Lookup("verify-handshake"))
	_ = viper.BindPFlag("health.listen", cmd.Flags().Lookup("health-listen"))

	return cmd
}

func runBot(ctx context.Context, logger *slog.Logger) error {
	password, err := passwordFromViper()
	if err != nil {
		return err
	}

	stateDir := statepaths.FileStateDir()
	if err := fsstore.EnsureDir(stateDir, 0o700); err != nil {
		return err
	}
	if err := fsstore.EnsureDir(statepaths.LockDir(), 0o700); err != nil {
		return err
	}
	lockPath, err := fsstore.BuildLockPath(statepaths.LockDir(), statepaths.InstanceLockKey)
	if err != nil {
		return err
	}
	lock, err := fsstore.TryLock(lockPath)
	if err != nil {
		if errors.Is(err, fsstore.ErrLockHeld) {
			return fmt.Errorf("another mucbot is already using %s", stateDir)
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	store, err := ledger.Open(statepaths.StateFilePath(), ledger.Options{
		Logger: logger.With("component", "ledger"),
		Retry:  retryutil.Policy{MaxTries: uint(viper.GetInt("state.save_retries"))},
	})
	if err != nil {
		return err
	}
	logger.Info("ledger_loaded", "path", store.Path(), "rooms", len(store.Rooms()), "admins", len(store.Admins()))

	catalog, err := commands.LoadCatalog(viper.GetString("bot.catalog_path"))
	if err != nil {
		return err
	}

	client, err := llmutil.ClientFromViper(ctx)
	if err != nil {
		// Free-form replies fail and refund until a provider is configured.
		logger.Warn("llm_unavailable", "error", err.Error())
		client = nil
	}
	ai := airesponder.New(client, store, airesponder.Options{
		Cost:    viper.GetInt("ai.cost"),
		Persona: viper.GetString("ai.persona"),
		Logger:  logger.With("component", "ai"),
	})

	info := infoapi.New(infoapi.Config{
		PrayerEndpoint:    viper.GetString("infoapi.prayer_endpoint"),
		PrayerCountry:     viper.GetString("infoapi.prayer_country"),
		PrayerMethod:      viper.GetInt("infoapi.prayer_method"),
		WeatherEndpoint:   viper.GetString("infoapi.weather_endpoint"),
		NewsFeedURL:       viper.GetString("infoapi.news_feed_url"),
		HoroscopeEndpoint: viper.GetString("infoapi.horoscope_endpoint"),
		UserAgent:         viper.GetString("user_agent"),
		RequestTimeout:    viper.GetDuration("infoapi.request_timeout"),
	})

	b, err := bot.New(bot.Options{
		Identity: xmpp.Identity{
			JID:      strings.TrimSpace(viper.GetString("xmpp.jid")),
			Password: password,
			Server:   strings.TrimSpace(viper.GetString("xmpp.server")),
			Port:     viper.GetInt("xmpp.port"),
			Resource: strings.TrimSpace(viper.GetString("xmpp.resource")),
		},
		VerifyHandshake: viper.GetBool("xmpp.verify_handshake"),
		Rooms:           viper.GetStringSlice("bot.rooms"),
		Commands: commands.Config{
			Nick:               strings.TrimSpace(viper.GetString("bot.nick")),
			PrimaryAdmin:       strings.TrimSpace(viper.GetString("bot.primary_admin")),
			ConferenceDomain:   strings.TrimSpace(viper.GetString("bot.conference_domain")),
			RestartKeywords:    viper.GetStringSlice("bot.restart_keywords"),
			PrayerCity:         viper.GetString("infoapi.prayer_city"),
			PrayerCityLabel:    viper.GetString("infoapi.prayer_city_label"),
			DefaultWeatherCity: viper.GetString("infoapi.default_weather_city"),
			NewsLimit:          viper.GetInt("infoapi.news_limit"),
		},
		MaxConcurrency: viper.GetInt("bot.max_concurrency"),
		Ledger:         store,
		Info:           info,
		AI:             ai,
		Catalog:        catalog,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})
	if addr := strings.TrimSpace(viper.GetString("health.listen")); addr != "" {
		g.Go(func() error {
			return healthcheck.Serve(gctx, addr, healthcheck.Handler("", b), logger.With("component", "health"))
		})
	}
	return g.Wait()
}

// passwordFromViper prompts on an interactive terminal when no password is
// configured.
func passwordFromViper() (string, error) {
	if pw := viper.GetString("xmpp.password"); pw != "" {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("missing xmpp.password (set MUCBOT_XMPP_PASSWORD or use a config file)")
	}
	_, _ = fmt.Fprint(os.Stderr, "XMPP password: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimSpace(string(raw))
	if pw == "" {
		return "", fmt.Errorf("empty password")
	}
	return pw, nil
}
