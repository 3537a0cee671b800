package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"attendsync/internal/app/client/config"
	"attendsync/internal/domain/attendance"
)

// App wires the durable queue, the HTTP client and the flush service
// together for the CLI.
type App struct {
	cfg   *config.Config
	log   *slog.Logger
	queue *Queue
	http  *httpClient
	flush *FlushService
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	queue, err := NewQueue(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open local queue: %w", err)
	}

	http := NewHTTPClient(cfg, log)

	app := &App{
		cfg:   cfg,
		log:   log,
		queue: queue,
		http:  http,
		flush: NewFlushService(queue, http, log),
	}

	if token, err := app.loadToken(); err == nil && token != "" {
		http.SetToken(token)
	}

	return app, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Queue() *Queue {
	return a.queue
}

// Capture enqueues one mark locally. The capture path never talks to the
// server.
func (a *App) Capture(sessionID, studentID, status string, capturedAt time.Time) (QueuedMark, error) {
	if !attendance.Status(status).Valid() {
		return QueuedMark{}, fmt.Errorf("invalid status %q", status)
	}

	return a.queue.Enqueue(QueuedMark{
		TenantID:   a.cfg.TenantID,
		SessionID:  sessionID,
		StudentID:  studentID,
		Status:     status,
		CapturedAt: capturedAt.UTC().Format(time.RFC3339),
	})
}

// Flush pushes outstanding marks for the configured tenant.
func (a *App) Flush(ctx context.Context) (FlushResult, error) {
	return a.flush.Flush(ctx, a.cfg.TenantID)
}

// StartAutoFlush runs the periodic flush loop for the configured tenant.
func (a *App) StartAutoFlush(ctx context.Context) {
	interval := time.Duration(a.cfg.FlushInterval) * time.Second
	a.flush.StartAutoFlush(ctx, a.cfg.TenantID, interval)
}

// ActiveSession fetches the current roster from the server and refreshes the
// offline cache. When the server is unreachable it falls back to the cache.
func (a *App) ActiveSession(ctx context.Context) (*attendance.SessionRoster, bool, error) {
	roster, err := a.http.ActiveSession(ctx)
	if err != nil {
		cached, _, cerr := a.queue.CachedRoster(a.cfg.TenantID)
		if cerr != nil || cached == nil {
			return nil, false, fmt.Errorf("fetch active session: %w", err)
		}
		var fromCache attendance.SessionRoster
		if jerr := json.Unmarshal(cached, &fromCache); jerr != nil {
			return nil, false, fmt.Errorf("decode cached roster: %w", jerr)
		}
		return &fromCache, true, nil
	}

	if roster != nil {
		if data, jerr := json.Marshal(roster); jerr == nil {
			if cerr := a.queue.CacheRoster(a.cfg.TenantID, data); cerr != nil {
				a.log.Warn("failed to cache roster", "error", cerr)
			}
		}
	}
	return roster, false, nil
}

// CheckConnection verifies the server is reachable.
func (a *App) CheckConnection(ctx context.Context) error {
	return a.http.HealthCheck(ctx)
}

// IsAuthenticated reports whether a bearer token is stored.
func (a *App) IsAuthenticated() bool {
	token, err := a.loadToken()
	return err == nil && token != ""
}

// SaveToken persists the bearer token and applies it to the HTTP client.
func (a *App) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	if err := os.WriteFile(a.cfg.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	a.http.SetToken(token)
	return nil
}

func (a *App) loadToken() (string, error) {
	data, err := os.ReadFile(a.cfg.TokenPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *App) Close() error {
	return a.queue.Close()
}

type contextKey string

const appKey contextKey = "app"

// NewContext attaches the app to a context for cobra commands.
func NewContext(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext extracts the app installed by the root command.
func FromContext(ctx context.Context) (*App, bool) {
	app, ok := ctx.Value(appKey).(*App)
	return app, ok
}
