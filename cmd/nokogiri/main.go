package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hideki0403/nokogiri/acl"
	"github.com/hideki0403/nokogiri/cache"
	"github.com/hideki0403/nokogiri/config"
	"github.com/hideki0403/nokogiri/fetch"
	"github.com/hideki0403/nokogiri/handler"
	"github.com/hideki0403/nokogiri/httphandler"
	"github.com/hideki0403/nokogiri/summary"
	"github.com/hideki0403/nokogiri/version"
)

const (
	shutdownTimeout  = 10 * time.Second
	cachePingTimeout = 5 * time.Second

	// transport
	transportIdleConnTimeout     = 90 * time.Second
	transportMaxIdleConns        = 100
	transportMaxIdleConnsPerHost = 100
)

func main() {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrCreatedDefault) {
		fmt.Printf("Created configuration file at %s. Please check it before running the application.\n", config.DefaultPath)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %s\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	summaryCache := initCache(cfg, logger)
	dispatcher := initDispatcher(cfg, summaryCache, logger)

	mux := http.NewServeMux()
	mux.Handle("/", httphandler.Index())
	mux.Handle("/robots.txt", httphandler.RobotsTxt())
	mux.Handle("/url", httphandler.New(dispatcher, cfg.Security.SecretKey))

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, strconv.Itoa(int(cfg.Server.Port))),
		Handler: applyMiddleware(mux, logger),
	}

	listenAndServeGracefully(srv, shutdownTimeout, logger)
}

func initLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.Debug.LogLevel); err == nil && cfg.Debug.LogLevel != "" {
		logger = logger.Level(lvl)
	}

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:     cfg.Sentry.DSN,
			Release: version.Name + "@" + version.Version,
		})
		if err != nil {
			logger.Error().Err(err).Msg("sentry initialization failed, error forwarding disabled")
		} else {
			logger = logger.Hook(sentryHook{})
			logger.Info().Msg("sentry error forwarding enabled")
		}
	}
	return logger
}

// sentryHook forwards error-level log events to Sentry.
type sentryHook struct{}

func (sentryHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level >= zerolog.ErrorLevel {
		sentry.CaptureMessage(msg)
	}
}

func initCache(cfg *config.Config, logger zerolog.Logger) *cache.Cache {
	if !cfg.Cache.Enabled {
		logger.Info().Msg("cache is disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Cache.Host, strconv.Itoa(int(cfg.Cache.Port))),
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	rdb.AddHook(redisotel.TracingHook{})

	ctx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	logger.Info().Msg("connected to redis")

	return cache.New(rdb, cfg.Cache.Prefix, logger)
}

func initDispatcher(cfg *config.Config, summaryCache *cache.Cache, logger zerolog.Logger) *handler.Dispatcher {
	responseTimeout := time.Duration(cfg.General.ResponseTimeout) * time.Millisecond
	operationTimeout := time.Duration(cfg.General.OperationTimeout) * time.Millisecond

	bodyLimit, err := cfg.General.ContentLengthBytes()
	if err != nil {
		logger.Error().Err(err).Msg("using default content length limit of 10 MiB")
	}

	dialer := fetch.NewDialer(acl.Policy{
		BlockNonGlobalIPs: cfg.Security.BlockNonGlobalIPs,
	}, responseTimeout)

	transport := otelhttp.NewTransport(&http.Transport{
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: responseTimeout,
		TLSHandshakeTimeout:   responseTimeout,
		IdleConnTimeout:       transportIdleConnTimeout,
		MaxIdleConns:          transportMaxIdleConns,
		MaxIdleConnsPerHost:   transportMaxIdleConnsPerHost,
	})

	client := fetch.NewClient(fetch.ClientConfig{
		Transport:        transport,
		MaxRedirects:     int(cfg.General.MaxRedirectHops),
		OperationTimeout: operationTimeout,
		BodyLimit:        bodyLimit,
		DefaultLang:      cfg.General.DefaultLang,
	}, logger)

	extractor := &summary.Extractor{Client: client}
	robots := fetch.NewRobots(client, summaryCache, logger)

	handlers := handler.NewRegistry(client, extractor, robots, handler.RegistryConfig{
		Disabled:        cfg.Plugins.Disabled,
		IgnoreRobotsTxt: cfg.General.IgnoreRobotsTxt,
	}, logger)

	return handler.NewDispatcher(handlers, summaryCache, logger)
}

func applyMiddleware(h http.Handler, l zerolog.Logger) http.Handler {
	h = recoverer(h)
	h = hlog.AccessHandler(accessLogger)(h)
	h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
	h = hlog.NewHandler(l)(h)
	return h
}

// recoverer turns a handler panic into an opaque 500 carrying only the
// request id.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				id, _ := hlog.IDFromRequest(r)
				hlog.FromRequest(r).Error().Interface("panic", rec).Msg("handler panicked")
				http.Error(w, fmt.Sprintf("Internal Server Error (RequestID: %s)", id), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func accessLogger(r *http.Request, status int, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("remote_addr", r.RemoteAddr).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Send()
}

func listenAndServeGracefully(srv *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) {
	// exitCh will be closed when it is safe to exit, after the server has
	// had a chance to shut down gracefully
	exitCh := make(chan struct{})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		logger.Info().Msgf("shutdown started by signal: %s", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
		sentry.Flush(2 * time.Second)

		close(exitCh)
	}()

	logger.Info().Msgf("listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("listen error")
	}

	<-exitCh
}
