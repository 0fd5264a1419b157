package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"sheetcal/internal/caldav"
	"sheetcal/internal/calendar"
	"sheetcal/internal/clock"
	"sheetcal/internal/config"
	"sheetcal/internal/filter"
	"sheetcal/internal/google"
	"sheetcal/internal/ics"
	"sheetcal/internal/nocode"
	"sheetcal/internal/rowcodec"
	"sheetcal/internal/syncer"
	"sheetcal/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "sheetcal",
		Usage: "Serve a shared event calendar backed by a spreadsheet.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"SHEETCAL_CONFIG"}, Usage: "Path to an optional YAML config file."},
		},
		Commands: []*cli.Command{
			serveCommand(),
			eventsCommand(),
			exportCommand(),
			publishCommand(),
			authCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config and a local .env file.
func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"), ".env")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and iCalendar feed.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "Address to listen on. Overrides LISTEN."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("listen") {
				cfg.Listen = c.String("listen")
			}

			svc, err := buildService(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			if cfg.AdminPassword == "" {
				logger.Warn("ADMIN_PASSWORD not set, admin operations are disabled")
			}

			srv := web.NewServer(svc, clock.NewSystem(), web.Options{
				AdminPassword: cfg.AdminPassword,
				CORSOrigins:   cfg.CORSOrigins,
			}, logger)
			server := &http.Server{
				Addr:              cfg.Listen,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("Starting HTTP server", "listen", "http://"+cfg.Listen, "mode", cfg.Mode())

			srvErr := make(chan error, 1)
			go func() {
				srvErr <- server.ListenAndServe()
			}()

			stopCtx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-srvErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
			case <-stopCtx.Done():
				logger.Info("Shutdown signal received, stopping server")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("Server stopped")
			return nil
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "window", Value: string(filter.All), Usage: "Time window: all, today, week, month, nextMonth, quarter."},
		&cli.StringSliceFlag{Name: "tags", Usage: "Only events with one of these tags."},
	}
}

func queryFromFlags(c *cli.Context) (filter.Query, error) {
	w, err := filter.ParseWindow(c.String("window"))
	if err != nil {
		return filter.Query{}, err
	}
	return filter.Query{Window: w, Tags: c.StringSlice("tags")}, nil
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List approved events.",
		Flags: queryFlags(),
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			q, err := queryFromFlags(c)
			if err != nil {
				return err
			}
			svc, err := buildService(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			events, err := svc.Events(c.Context)
			if err != nil {
				return err
			}

			for _, e := range filter.Apply(events, q, time.Now()) {
				when := e.StartDate.Format("2006-01-02 15:04")
				if e.IsAllDay {
					when = e.StartDate.Format("2006-01-02") + " all day"
				}
				fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%s\n", when, e.ID, e.Title, strings.Join(e.Tags, ","))
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write approved events as an iCalendar file.",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "File to write. Defaults to stdout."},
		}, queryFlags()...),
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			q, err := queryFromFlags(c)
			if err != nil {
				return err
			}
			svc, err := buildService(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			events, err := svc.Events(c.Context)
			if err != nil {
				return err
			}

			var w io.Writer = c.App.Writer
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer f.Close()
				w = f
			}
			now := time.Now()
			events = filter.Apply(events, q, now)
			if err := ics.Encode(w, events, svc.Settings(c.Context).SiteTitle, now); err != nil {
				return fmt.Errorf("failed to write calendar: %w", err)
			}
			logger.Info("Exported events", "count", len(events))
			return nil
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish approved events to a CalDAV calendar.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be published without making changes."},
			&cli.IntFlag{Name: "watch", Value: 300, Usage: "Publish every N seconds instead of once."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("watch") && c.Int("watch") <= 0 {
				return fmt.Errorf("--watch must be a positive number of seconds")
			}
			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No changes will be made.")
			}
			if cfg.CalDAV.Username == "" || cfg.CalDAV.Password == "" {
				return fmt.Errorf("CALDAV_USERNAME and CALDAV_PASSWORD must be set")
			}

			svc, err := buildService(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			target, err := caldav.NewClient(c.Context, logger, clock.NewSystem(), caldav.Config{
				Endpoint:     cfg.CalDAV.URL,
				Username:     cfg.CalDAV.Username,
				Password:     cfg.CalDAV.Password,
				CalendarName: cfg.CalDAV.CalendarName,
			})
			if err != nil {
				return fmt.Errorf("failed to create caldav client: %w", err)
			}

			s, err := syncer.NewSyncer(logger, svc, target, cfg.SyncStateFile, c.Bool("dry-run"))
			if err != nil {
				return fmt.Errorf("failed to create syncer: %w", err)
			}

			// --watch keeps running until interrupted
			if c.IsSet("watch") {
				ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
				defer stop()
				err := s.Watch(ctx, time.Duration(c.Int("watch"))*time.Second)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			logger.Info("Running a single publish cycle.")
			if _, err := s.Sync(c.Context); err != nil {
				return fmt.Errorf("publish cycle failed: %w", err)
			}
			return nil
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get a Sheets API token.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(cfg.Google.ClientID, cfg.Google.ClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			tokenFile := cfg.Google.TokenFile
			if tokenFile == "" {
				tokenFile = google.DefaultTokenFile
			}
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

// buildService wires the calendar service to the backend selected by cfg.
func buildService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*calendar.Service, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}
	codec := rowcodec.New(schema, clock.NewSystem())
	tabs := calendar.Tabs{Events: cfg.EventsTab, Settings: cfg.SettingsTab}

	switch cfg.Mode() {
	case config.ModeSheets:
		client, err := google.NewClient(ctx, logger, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenFile, cfg.Google.SpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}
		return calendar.NewService(client, codec, tabs, logger), nil
	case config.ModeNocode:
		client, err := nocode.NewClient(cfg.NocodeEndpoint, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create nocode client: %w", err)
		}
		return calendar.NewService(client, codec, tabs, logger), nil
	default:
		logger.Warn("No backend configured, serving read-only sample events")
		return calendar.NewDemo(codec, tabs, logger), nil
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
