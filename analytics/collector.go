package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	keyHistory        = "analyticsData"
	keyCurrentSession = "currentAnalyticsSession"
	keyLastSave       = "lastAnalyticsSave"

	SessionTimeout      = 30 * time.Minute
	DefaultSyncInterval = 60 * time.Second

	historySaveInterval = 30 * time.Second
	syncTimeout         = 10 * time.Second
)

type CollectorOptions struct {
	// Endpoint is the full URL of the server's save route.
	Endpoint     string
	SyncInterval time.Duration
	HTTPClient   *http.Client
	// UserInfo describes the client. Unknown placeholders are used when empty.
	UserInfo *UserInfo
}

// Collector tracks page views for one client, keeps them in local storage and
// periodically ships finished sessions to the server.
type Collector struct {
	storage KeyValue
	logger  *slog.Logger
	opts    CollectorOptions

	now          func() time.Time
	newSessionID func() string

	mu          sync.Mutex
	history     []Session
	current     *Session
	initialized bool
}

func NewCollector(storage KeyValue, logger *slog.Logger, opts CollectorOptions) *Collector {
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = DefaultSyncInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: syncTimeout}
	}

	return &Collector{
		storage:      storage,
		logger:       logger,
		opts:         opts,
		now:          time.Now,
		newSessionID: uuid.NewString,
	}
}

// Init loads persisted state and resumes a recent session or starts a new one.
// Calling it again is a no-op.
func (c *Collector) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return
	}

	c.loadFromStorage()
	if c.current == nil {
		c.startNewSession()
	}
	c.initialized = true
}

func (c *Collector) TrackPageView(route string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return NewInvalidSessionError("No active session")
	}
	if strings.TrimSpace(route) == "" {
		return NewInvalidSessionError("Invalid route provided")
	}

	now := c.now()
	nowMs := now.UnixMilli()

	if n := len(c.current.PageViews); n > 0 {
		prev := &c.current.PageViews[n-1]
		prev.Duration = nowMs - prev.StartTime
	}

	c.current.PageViews = append(c.current.PageViews, PageView{
		Route:     route,
		Timestamp: now.UTC(),
		StartTime: nowMs,
	})
	c.current.LastActivity = nowMs

	return c.saveToStorage()
}

// Export finishes the current session, records it in the history and starts a
// new session. It returns nil when nothing has been tracked yet.
func (c *Collector) Export() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || len(c.current.PageViews) == 0 {
		return nil
	}

	now := c.now()
	finished := copySession(*c.current)
	end := now.UTC()
	total := now.Sub(finished.StartTime).Milliseconds()
	finished.EndTime = &end
	finished.TotalDuration = &total

	c.history = append(c.history, finished)
	c.startNewSession()

	if err := c.saveToStorage(); err != nil {
		c.logger.Warn("failed to persist exported analytics session", slog.String("error", err.Error()))
	}

	return &finished
}

func (c *Collector) History() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Session, 0, len(c.history))
	for _, s := range c.history {
		out = append(out, copySession(s))
	}
	return out
}

func (c *Collector) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Session{}, false
	}
	return copySession(*c.current), true
}

func (c *Collector) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initialized && c.current != nil
}

// Clear drops all in-memory and persisted state. Init starts a fresh session
// afterwards.
func (c *Collector) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = nil
	c.current = nil
	c.initialized = false

	for _, key := range []string{keyHistory, keyCurrentSession, keyLastSave} {
		if err := c.storage.Delete(key); err != nil {
			return NewFailedToWriteError("Failed to clear analytics data", err)
		}
	}
	return nil
}

// Sync exports the current session and posts it to the server.
func (c *Collector) Sync(ctx context.Context) error {
	session := c.Export()
	if session == nil {
		return nil
	}

	body, err := json.Marshal(session)
	if err != nil {
		return NewFailedToWriteError("Failed to encode analytics data", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return NewFailedToWriteError("Failed to build sync request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return NewFailedToWriteError("Failed to sync with server", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewFailedToWriteError(fmt.Sprintf("Sync rejected with status %d", resp.StatusCode), nil)
	}
	if decodeErr != nil {
		return NewFailedToWriteError("Failed to parse sync response", decodeErr)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = result.Message
		}
		if msg == "" {
			msg = "Failed to save analytics data"
		}
		return NewFailedToWriteError(msg, nil)
	}

	c.logger.Debug("analytics session synced", slog.String("session-id", session.SessionID))

	return nil
}

// Run syncs on every interval tick until ctx is done. Failures are logged and
// the loop continues.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.opts.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil {
				c.logger.Error("failed to sync analytics with server", slog.String("error", err.Error()))
			}
		}
	}
}

func (c *Collector) startNewSession() {
	info := UnknownUserInfo()
	if c.opts.UserInfo != nil {
		info = *c.opts.UserInfo
	}

	now := c.now()
	c.current = &Session{
		SessionID:    c.newSessionID(),
		StartTime:    now.UTC(),
		LastActivity: now.UnixMilli(),
		PageViews:    []PageView{},
		UserInfo:     info,
	}
}

// saveToStorage always persists the current session. The history is persisted
// at most once per historySaveInterval.
func (c *Collector) saveToStorage() error {
	if c.current != nil {
		data, err := json.Marshal(c.current)
		if err != nil {
			return NewFailedToWriteError("Failed to encode current session", err)
		}
		if err := c.storage.Set(keyCurrentSession, string(data)); err != nil {
			return NewFailedToWriteError("Failed to save analytics data to storage", err)
		}
	}

	now := c.now().UnixMilli()
	raw, ok, err := c.storage.Get(keyLastSave)
	if err != nil {
		return NewFailedToWriteError("Failed to save analytics data to storage", err)
	}
	if ok {
		last, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr == nil && now-last <= historySaveInterval.Milliseconds() {
			return nil
		}
	}

	history := c.history
	if history == nil {
		history = []Session{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return NewFailedToWriteError("Failed to encode analytics history", err)
	}
	if err := c.storage.Set(keyHistory, string(data)); err != nil {
		return NewFailedToWriteError("Failed to save analytics data to storage", err)
	}
	if err := c.storage.Set(keyLastSave, strconv.FormatInt(now, 10)); err != nil {
		return NewFailedToWriteError("Failed to save analytics data to storage", err)
	}
	return nil
}

func (c *Collector) loadFromStorage() {
	if raw, ok, err := c.storage.Get(keyHistory); err != nil {
		c.logger.Warn("failed to load analytics history", slog.String("error", err.Error()))
	} else if ok {
		var history []Session
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			c.logger.Warn("failed to parse analytics history", slog.String("error", err.Error()))
		} else {
			c.history = history
		}
	}

	raw, ok, err := c.storage.Get(keyCurrentSession)
	if err != nil {
		c.logger.Warn("failed to load current analytics session", slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		c.logger.Warn("failed to parse current analytics session", slog.String("error", err.Error()))
		return
	}
	if c.now().Sub(session.StartTime) < SessionTimeout {
		if session.PageViews == nil {
			session.PageViews = []PageView{}
		}
		c.current = &session
	}
}

func copySession(s Session) Session {
	s.PageViews = slices.Clone(s.PageViews)
	s.UserInfo.Languages = slices.Clone(s.UserInfo.Languages)
	return s
}
