package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    "golang.org/x/sync/errgroup"

    "github.com/jaminalder/codex-gomoku/internal/app"
    "github.com/jaminalder/codex-gomoku/internal/config"
    "github.com/jaminalder/codex-gomoku/internal/shell"
    "github.com/jaminalder/codex-gomoku/internal/web"
)

const (
    GracefulShutdownTimeout = 5 * time.Second
)

func setupLogging(debug bool) {
    output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
    output.FormatLevel = func(i interface{}) string {
        return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
    }
    output.FormatFieldName = func(i interface{}) string {
        return fmt.Sprintf("%s:", i)
    }

    level := zerolog.InfoLevel
    if debug {
        level = zerolog.DebugLevel
    }
    zerolog.SetGlobalLevel(level)
    logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
    zerolog.DefaultContextLogger = &logger
    log.Logger = logger
    logger.Debug().Msg("Debug logging is on")
}

// usage: gomoku [serve|shell] [flags]
func main() {
    args := os.Args[1:]
    mode := "serve"
    if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
        mode, args = args[0], args[1:]
    }

    cfg := &config.Config{}
    if err := cfg.Load(args); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(2)
    }
    setupLogging(cfg.GetBool(config.ConfigDebug))
    log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())

    var err error
    switch mode {
    case "serve":
        err = serve(cfg)
    case "shell":
        err = runShell(cfg)
    default:
        err = fmt.Errorf("unknown mode %q, want serve or shell", mode)
    }
    if err != nil {
        log.Error().Err(err).Msg("exiting")
        os.Exit(1)
    }
}

func serve(cfg *config.Config) error {
    side, err := app.ParseSide(cfg.GetString(config.ConfigEngineSide))
    if err != nil {
        return err
    }
    svc := app.NewService()
    svc.SetDefaults(app.Options{
        Width:      cfg.GetInt(config.ConfigWidth),
        Height:     cfg.GetInt(config.ConfigHeight),
        Depth:      cfg.GetInt(config.ConfigDepth),
        EngineSide: side,
    })
    server := &http.Server{
        Addr:              cfg.GetString(config.ConfigAddr),
        Handler:           web.NewServer(svc, web.WithHeartbeat(cfg.GetDuration(config.ConfigHeartbeat))),
        ReadHeaderTimeout: 10 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        log.Info().Str("addr", server.Addr).Msg("listening")
        if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            return err
        }
        return nil
    })
    g.Go(func() error {
        <-gctx.Done()
        log.Info().Msg("got quit signal...")
        shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
        defer cancel()
        if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Error().Err(err).Msg("graceful shutdown failed")
            return server.Close()
        }
        return nil
    })
    return g.Wait()
}

func runShell(cfg *config.Config) error {
    sc, err := shell.NewShellController(
        cfg.GetInt(config.ConfigWidth),
        cfg.GetInt(config.ConfigHeight),
        cfg.GetInt(config.ConfigDepth),
        cfg.GetString(config.ConfigHistoryFile),
    )
    if err != nil {
        return err
    }
    sig := make(chan os.Signal, 1)
    signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
    go sc.Loop(sig)
    <-sig
    log.Info().Msg("got quit signal...")
    return nil
}
