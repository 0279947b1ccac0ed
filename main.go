// Command backend is the main entrypoint for the tunebridge chat bot and API.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Builds the music catalogs (Spotify, Apple Music, optionally YouTube)
//     and the link conversion engine.
//   - Starts background jobs: the Twitch chat bot, the Spotify app-token
//     keeper, and conversion audit retention.
//   - Exposes an HTTP server with /healthz, /readyz, /status, /convert,
//     /conversions, /admin/channels and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tunebridge/backend/catalog"
	"github.com/tunebridge/backend/catalog/applemusic"
	"github.com/tunebridge/backend/catalog/spotify"
	"github.com/tunebridge/backend/catalog/youtube"
	"github.com/tunebridge/backend/chat"
	"github.com/tunebridge/backend/config"
	"github.com/tunebridge/backend/convert"
	"github.com/tunebridge/backend/db"
	"github.com/tunebridge/backend/oauth"
	"github.com/tunebridge/backend/server"
	"github.com/tunebridge/backend/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("tunebridge", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// DB
	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	// Versioned migrations first; fall back to the embedded SQL bootstrap for
	// deployments predating the schema_migrations table.
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting embedded SQL fallback",
			slog.Any("err", err), slog.String("component", "db_migrate"))
		if err := db.Migrate(context.Background(), database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalogs. Spotify needs client credentials, Apple Music is keyless,
	// YouTube joins only when an API key is configured.
	var catalogs []catalog.Catalog
	var spotifyClient *spotify.Client
	if err := cfg.ValidateCatalogReady(); err != nil {
		slog.Warn("spotify catalog disabled", slog.Any("err", err))
	} else {
		spotifyClient = &spotify.Client{ClientID: cfg.SpotifyClientID, ClientSecret: cfg.SpotifyClientSecret}
		catalogs = append(catalogs, spotifyClient)
	}
	catalogs = append(catalogs, &applemusic.Client{})
	if cfg.YouTubeAPIKey != "" {
		catalogs = append(catalogs, &youtube.Client{APIKey: cfg.YouTubeAPIKey})
	} else {
		slog.Info("youtube catalog disabled (YOUTUBE_API_KEY not set)")
	}
	slog.Info("catalogs initialized", slog.Int("count", len(catalogs)))

	converter := &convert.Converter{
		Catalogs:    catalogs,
		DB:          database,
		SearchLimit: cfg.SearchLimit,
	}

	// Chat bot. Joins the configured channels plus any channel that was
	// subscribed via !tunebridge on in a previous run.
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Warn("chat bot disabled", slog.Any("err", err))
	} else {
		channels := cfg.TwitchChannels
		if persisted, err := db.ListSubscribedChannels(ctx, database); err != nil {
			slog.Warn("failed to load subscribed channels", slog.Any("err", err))
		} else {
			seen := make(map[string]bool, len(channels))
			for _, ch := range channels {
				seen[ch] = true
			}
			for _, ch := range persisted {
				if !seen[ch] {
					channels = append(channels, ch)
				}
			}
		}
		bot := &chat.Bot{
			Username:   cfg.TwitchBotUsername,
			OAuthToken: cfg.TwitchOAuthToken,
			Channels:   channels,
			DB:         database,
			Converter:  converter,
		}
		go func() {
			if err := bot.StartLinkBot(ctx); err != nil {
				slog.Error("chat bot exited with error", slog.Any("err", err))
			}
		}()
	}

	// Keep the Spotify app token warm so /status can report credential health
	// and cold starts skip the initial grant round trip.
	if spotifyClient != nil {
		oauth.StartKeeper(ctx, database, "spotify", 5*time.Minute, 15*time.Minute, spotifyClient.AppToken)
	}

	// Conversion audit retention
	go convert.StartRetentionJob(ctx, database)

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/status/convert/metrics)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, database, converter, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
