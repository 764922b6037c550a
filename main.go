// Command lastword starts the word game server.
//
// It supports two commands:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the game WebSocket and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Every flag can also be set from the environment or a .env file. Optional
// NATS publishing mirrors public game events, and an ngrok tunnel gives easy
// external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/lastword/api"
	"github.com/wricardo/lastword/game/config"
	"github.com/wricardo/lastword/game/lexicon"
	"github.com/wricardo/lastword/game/service"
	"github.com/wricardo/lastword/game/session"
	"github.com/wricardo/lastword/transport/mcp"
	"github.com/wricardo/lastword/transport/nats"
	"github.com/wricardo/lastword/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Last Word Server"
)

// options is the resolved process configuration.
type options struct {
	Host           string
	Port           int
	RulesDir       string
	DefaultRules   string
	LexiconDir     string
	AcceptAllWords bool
	Players        int
	MaxSessions    int
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
	GameOverGrace  time.Duration
	NatsURL        string
	NatsPrefix     string
	LogLevel       string
	Debug          bool
	Ngrok          bool
	NgrokAuth      string
	NgrokDomain    string
	RateLimit      int
	TrustProxy     bool
	AdminToken     string
	StaticDir      string
}

func (o options) addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func (o options) validate() error {
	switch {
	case o.SweepInterval <= 0:
		return fmt.Errorf("--sweep-interval must be positive, got %v", o.SweepInterval)
	case o.IdleTimeout <= 0:
		return fmt.Errorf("--idle-timeout must be positive, got %v", o.IdleTimeout)
	case o.GameOverGrace < 0:
		return fmt.Errorf("--game-over-grace must not be negative, got %v", o.GameOverGrace)
	case o.MaxSessions <= 0:
		return fmt.Errorf("--max-sessions must be positive, got %d", o.MaxSessions)
	case o.RateLimit < 0:
		return fmt.Errorf("--rate-limit must not be negative, got %d", o.RateLimit)
	}
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "lastword",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "rules-dir", Value: "rules", Usage: "Directory containing rule set files", Sources: cli.EnvVars("RULES_DIR")},
			&cli.StringFlag{Name: "default-rules", Value: config.DefaultRuleSetName, Usage: "Rule set used when a session names none", Sources: cli.EnvVars("DEFAULT_RULES")},
			&cli.StringFlag{Name: "lexicon-dir", Value: "lexica", Usage: "Directory containing word lists and word graphs", Sources: cli.EnvVars("LEXICON_DIR")},
			&cli.BoolFlag{Name: "accept-all-words", Usage: "Accept every word for languages without a lexicon", Sources: cli.EnvVars("ACCEPT_ALL_WORDS")},
			&cli.IntFlag{Name: "players", Value: service.DefaultPlayers, Usage: "Players per session when a session names none", Sources: cli.EnvVars("PLAYERS")},
			&cli.IntFlag{Name: "max-sessions", Value: session.DefaultMaxSessions, Usage: "Maximum number of live sessions", Sources: cli.EnvVars("MAX_SESSIONS")},
			&cli.DurationFlag{Name: "idle-timeout", Value: session.DefaultIdleTimeout, Usage: "Remove sessions idle for longer than this", Sources: cli.EnvVars("IDLE_TIMEOUT")},
			&cli.DurationFlag{Name: "sweep-interval", Value: session.DefaultSweepInterval, Usage: "How often idle sessions are looked for", Sources: cli.EnvVars("SWEEP_INTERVAL")},
			&cli.DurationFlag{Name: "game-over-grace", Value: session.DefaultGameOverGrace, Usage: "How long a finished session stays available", Sources: cli.EnvVars("GAME_OVER_GRACE")},
			&cli.StringFlag{Name: "nats-url", Usage: "Publish public game events to this NATS server (optional)", Sources: cli.EnvVars("NATS_URL")},
			&cli.StringFlag{Name: "nats-subject-prefix", Value: nats.DefaultSubjectPrefix, Usage: "First token of published NATS subjects", Sources: cli.EnvVars("NATS_SUBJECT_PREFIX")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging with human-readable output", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
			&cli.IntFlag{Name: "rate-limit", Value: 80, Usage: "REST requests per minute per client address, 0 disables", Sources: cli.EnvVars("RATE_LIMIT")},
			&cli.BoolFlag{Name: "trust-proxy", Usage: "Rate limit by X-Forwarded-For; only behind a proxy that sets it", Sources: cli.EnvVars("TRUST_PROXY")},
			&cli.StringFlag{Name: "admin-token", Usage: "Bearer token for the operator endpoints; they are disabled without one", Sources: cli.EnvVars("ADMIN_TOKEN")},
			&cli.StringFlag{Name: "static-dir", Value: "./static/", Usage: "Directory with the browser client", Sources: cli.EnvVars("STATIC_DIR")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHTTPServer(ctx, optionsFromCommand(cmd))
		},
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runHTTPServer(ctx, optionsFromCommand(cmd))
				},
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(ctx, optionsFromCommand(cmd))
				},
			},
		},
	}
}

func optionsFromCommand(cmd *cli.Command) options {
	return options{
		Host:           cmd.String("host"),
		Port:           cmd.Int("port"),
		RulesDir:       cmd.String("rules-dir"),
		DefaultRules:   cmd.String("default-rules"),
		LexiconDir:     cmd.String("lexicon-dir"),
		AcceptAllWords: cmd.Bool("accept-all-words"),
		Players:        cmd.Int("players"),
		MaxSessions:    cmd.Int("max-sessions"),
		IdleTimeout:    cmd.Duration("idle-timeout"),
		SweepInterval:  cmd.Duration("sweep-interval"),
		GameOverGrace:  cmd.Duration("game-over-grace"),
		NatsURL:        cmd.String("nats-url"),
		NatsPrefix:     cmd.String("nats-subject-prefix"),
		LogLevel:       cmd.String("log-level"),
		Debug:          cmd.Bool("debug"),
		Ngrok:          cmd.Bool("ngrok"),
		NgrokAuth:      cmd.String("ngrok-auth"),
		NgrokDomain:    cmd.String("ngrok-domain"),
		RateLimit:      cmd.Int("rate-limit"),
		TrustProxy:     cmd.Bool("trust-proxy"),
		AdminToken:     cmd.String("admin-token"),
		StaticDir:      cmd.String("static-dir"),
	}
}

// setupLogging configures the global zerolog logger. Logs always go to
// stderr so stdio-mcp keeps stdout for the protocol.
func setupLogging(level string, debug bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if debug {
		lvl = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// main loads .env, then parses flags and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// app holds the wired services of one process.
type app struct {
	opts     options
	service  service.GameService
	sessions *session.Manager
	hub      *websocket.Hub
	closers  []func()
}

// newApp wires rule sets, lexicons, sessions, notifiers and the game service.
func newApp(opts options) (*app, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	configs, err := config.NewManager(opts.RulesDir, opts.DefaultRules)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var lexOpts []lexicon.RegistryOption
	if opts.AcceptAllWords {
		lexOpts = append(lexOpts, lexicon.WithAcceptAllFallback())
	}
	dicts := lexicon.NewRegistry(opts.LexiconDir, lexOpts...)

	// Fail at startup rather than on the first session.
	defaultLanguage := configs.GetDefault().Language
	if _, err := dicts.Get(defaultLanguage); err != nil {
		return nil, fmt.Errorf("no dictionary for default rule set (use --accept-all-words to play without one): %w", err)
	}

	a := &app{opts: opts, hub: websocket.NewHub()}
	notifiers := service.MultiNotifier{a.hub}

	if opts.NatsURL != "" {
		publisher, closeFn, err := nats.Connect(opts.NatsURL, opts.NatsPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		a.closers = append(a.closers, closeFn)
		notifiers = append(notifiers, publisher)
	}

	a.sessions = session.NewManager(
		session.WithMaxSessions(opts.MaxSessions),
		session.WithGameOverGrace(opts.GameOverGrace),
	)
	a.service = service.NewGameService(a.sessions, configs, dicts,
		service.WithNotifier(notifiers),
		service.WithDefaultPlayers(opts.Players),
	)

	log.Info().
		Str("rules_dir", opts.RulesDir).
		Str("default_rules", configs.GetDefault().Name).
		Str("lexicon_dir", opts.LexiconDir).
		Int("max_sessions", opts.MaxSessions).
		Msg("services initialized")
	return a, nil
}

// Close releases external connections.
func (a *app) Close() {
	for _, fn := range a.closers {
		fn()
	}
}

// handler combines the API server and the /mcp endpoint. mcpBaseURL is
// where the MCP proxy reaches the REST API.
func (a *app) handler(mcpBaseURL string) http.Handler {
	apiOpts := []api.Option{
		api.WithRateLimit(a.opts.RateLimit),
		api.WithStaticDir(a.opts.StaticDir),
		api.WithAdminToken(a.opts.AdminToken),
	}
	if a.opts.TrustProxy {
		apiOpts = append(apiOpts, api.WithTrustedProxy())
	}
	apiServer := api.NewServer(a.service, a.hub, apiOpts...)
	mcpClient := mcp.NewClient(mcpBaseURL, mcp.WithAuthToken(a.opts.AdminToken))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves the REST API, the WebSocket hub and the /mcp
// endpoint until ctx is cancelled. If ngrok is enabled it also provisions a
// public tunnel.
func runHTTPServer(ctx context.Context, opts options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := opts.addr()
	handler := a.handler("http://" + addr)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.sessions.Run(gctx, opts.SweepInterval, opts.IdleTimeout)
	})

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>&player=<uuid>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if opts.Ngrok {
		g.Go(func() error {
			return serveNgrok(gctx, opts, handler)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done. A
// missing token or a failed tunnel is logged and does not stop the server.
func serveNgrok(ctx context.Context, opts options, handler http.Handler) error {
	if opts.NgrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return nil
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Info().Str("domain", opts.NgrokDomain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().Str("url", ngrokURL).Msg("ngrok tunnel established")
	log.Info().Msgf("  REST API (ngrok): %s/api", ngrokURL)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)
	log.Info().Msgf("  Game UI (ngrok): %s/", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
	return nil
}

// externalAPIAvailable reports whether a server already answers at baseURL.
func externalAPIAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses a server already running
// at the configured address; otherwise it starts an internal HTTP API bound
// to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, opts options) error {
	baseURL := "http://" + opts.addr()
	log.Info().Str("url", baseURL).Msg("checking for external API server")

	if externalAPIAvailable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		a, err := newApp(opts)
		if err != nil {
			return err
		}
		defer a.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		httpServer := &http.Server{Handler: a.handler(baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		go a.sessions.Run(ctx, opts.SweepInterval, opts.IdleTimeout)
		log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL, mcp.WithAuthToken(opts.AdminToken))
	log.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
