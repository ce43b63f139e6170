package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/secureops/secureops-client/config"
	"github.com/secureops/secureops-client/internal/adapters/backend"
	"github.com/secureops/secureops-client/internal/adapters/oidc"
	redisadapter "github.com/secureops/secureops-client/internal/adapters/redis"
	"github.com/secureops/secureops-client/internal/adapters/transport"
	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/observability/statsd"
	"github.com/secureops/secureops-client/internal/ports"
	"github.com/secureops/secureops-client/internal/service"
)

// ErrNoCredentials is returned by EnsureSession when no session could be
// restored and no account is configured.
var ErrNoCredentials = apperrors.Unauthorized("not signed in; set SECUREOPS_EMAIL and SECUREOPS_PASSWORD", nil)

// AppDeps groups dependencies for NewApp.
type AppDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// RedisClient is optional; when set, completed job results are cached.
	RedisClient redis.UniversalClient
	// Metrics is optional; defaults to a NopSink.
	Metrics statsd.Sink
	// HTTPClient is optional; its Jar carries the refresh cookie.
	HTTPClient *http.Client
}

// App holds the wired client components. One App owns exactly one
// credential store and one session.
type App struct {
	Config    config.AppConfig
	Logger    *slog.Logger
	Transport *transport.HTTPTransport
	Store     *service.TokenStore
	Gateway   *service.RequestGateway
	Client    *backend.Client
	Session   *service.SessionController
	Results   *service.ResultGateway
	Metrics   statsd.Sink

	closers []func() error

	mu        sync.Mutex
	workflows map[*service.UploadWorkflow]struct{}
	closed    bool
	unwatch   func()
}

// NewApp wires transport, gateway, backend client, session and result
// gateway. Open workflows are torn down when the session becomes
// Unauthenticated.
func NewApp(deps AppDeps) (*App, error) {
	if deps.Config == nil {
		return nil, errors.New("Config is required")
	}
	cfg := *deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := deps.Metrics
	if sink == nil {
		sink = statsd.NopSink{}
	}

	tr, err := transport.NewHTTPTransport(transport.HTTPTransportOptions{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.RequestTimeout,
		UserAgent: cfg.API.UserAgent,
		Client:    deps.HTTPClient,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	claims := oidc.NewClaimsDecoder()
	exchange, err := backend.NewRefreshExchange(tr, claims)
	if err != nil {
		return nil, fmt.Errorf("create refresh exchange: %w", err)
	}

	store := service.NewTokenStore()
	gw, err := service.NewRequestGateway(service.RequestGatewayOptions{
		Transport: tr,
		Exchanger: exchange,
		Store:     store,
		Metrics:   sink,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create request gateway: %w", err)
	}

	client, err := backend.NewClient(backend.ClientOptions{Sender: gw, Claims: claims, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	session, err := service.NewSessionController(service.SessionControllerOptions{
		Auth:      client,
		Refresher: gw,
		Store:     store,
		Events:    gw,
		Metrics:   sink,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create session controller: %w", err)
	}

	var cache ports.ResultCache
	if deps.RedisClient != nil {
		cache = redisadapter.NewResultCache(deps.RedisClient, redisadapter.ResultCacheOptions{
			Prefix: cfg.Cache.KeyPrefix,
			TTL:    cfg.Cache.ResultsTTL,
		})
	}
	results, err := service.NewResultGateway(service.ResultGatewayOptions{
		Results: client,
		Cache:   cache,
		Logger:  logger,
	})
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("create result gateway: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Transport: tr,
		Store:     store,
		Gateway:   gw,
		Client:    client,
		Session:   session,
		Results:   results,
		Metrics:   sink,
		workflows: make(map[*service.UploadWorkflow]struct{}),
	}
	app.unwatch = session.OnStateChange(func(prev, next domainauth.Session) {
		if prev.AuthState == domainauth.AuthStateAuthenticated &&
			next.AuthState == domainauth.AuthStateUnauthenticated {
			app.closeWorkflows()
		}
	})
	return app, nil
}

// Open connects the optional Redis cache and metrics sink described by cfg
// and returns a wired App. An unreachable cache is logged and skipped.
func Open(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("Config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	sink, closeSink := BuildMetricsSink(ctx, logger, cfg.Observability.Metrics)
	closers := []func() error{closeSink}

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled() {
		client, err := ConnectRedis(ctx, CacheConnectConfig{Cache: cfg.Cache, Logger: logger})
		if err != nil {
			logger.WarnContext(ctx, "result cache disabled", "error", err)
		} else {
			redisClient = client
			closers = append(closers, client.Close)
		}
	}

	app, err := NewApp(AppDeps{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		Metrics:     sink,
	})
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// EnsureSession restores a session from the refresh cookie and, when that
// fails, signs in with the configured credentials.
func (a *App) EnsureSession(ctx context.Context) (*domainauth.Profile, error) {
	if err := a.Session.Bootstrap(ctx); err != nil {
		return nil, err
	}
	if sess := a.Session.Session(); sess.IsAuthenticated() {
		return sess.User, nil
	}
	if !a.Config.Credentials.Present() {
		return nil, ErrNoCredentials
	}
	return a.Session.Login(ctx, a.Config.Credentials.Email, a.Config.Credentials.Password)
}

// NewWorkflow creates an upload workflow bound to this App's session. It is
// closed automatically when the session ends.
func (a *App) NewWorkflow() (*service.UploadWorkflow, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, errors.New("app is closed")
	}

	wf, err := service.NewUploadWorkflow(service.UploadWorkflowOptions{
		Jobs:         a.Client,
		Rules:        a.Config.Jobs.Rules(),
		PollInterval: a.Config.Jobs.PollInterval,
		Results:      a.Results,
		Metrics:      a.Metrics,
		Logger:       a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create upload workflow: %w", err)
	}
	a.workflows[wf] = struct{}{}
	return wf, nil
}

// ReleaseWorkflow closes wf and forgets it.
func (a *App) ReleaseWorkflow(wf *service.UploadWorkflow) {
	a.mu.Lock()
	delete(a.workflows, wf)
	a.mu.Unlock()
	wf.Close()
}

// OpenWorkflows returns the number of workflows not yet closed.
func (a *App) OpenWorkflows() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.workflows)
}

func (a *App) closeWorkflows() {
	a.mu.Lock()
	open := make([]*service.UploadWorkflow, 0, len(a.workflows))
	for wf := range a.workflows {
		open = append(open, wf)
	}
	clear(a.workflows)
	a.mu.Unlock()

	if len(open) > 0 {
		a.Logger.Info("closing upload workflows after session end", "count", len(open))
	}
	for _, wf := range open {
		wf.Close()
	}
}

// Close tears down workflows and the session and releases the cache and
// metrics connections. It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.unwatch()
	a.closeWorkflows()
	a.Session.Close()

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
