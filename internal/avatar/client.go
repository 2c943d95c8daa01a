// Package avatar talks to the external renderer/TTS backend that draws
// the presenter and voices queued script lines.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/larisin-live/backend/internal/models"
)

// ErrDisabled is returned when no backend base URL is configured.
var ErrDisabled = errors.New("avatar backend not configured")

// Client is a thin HTTP client for the avatar backend. All calls are
// best-effort: the stream keeps running when the backend is down, the
// dashboard just loses the rendered presenter.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an avatar backend client. An empty baseURL disables
// every call, which turns the whole backend into a no-op.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether a backend is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// StreamStart tells the backend a broadcast began.
func (c *Client) StreamStart(ctx context.Context, settings models.StreamSettings) error {
	return c.post(ctx, "/api/stream/start", settings)
}

// StreamStop tells the backend the broadcast ended.
func (c *Client) StreamStop(ctx context.Context) error {
	return c.post(ctx, "/api/stream/stop", nil)
}

// Speak forwards a line for the avatar to voice.
func (c *Client) Speak(ctx context.Context, req models.SpeakRequest) error {
	return c.post(ctx, "/api/avatar/speak", req)
}

// ChangeAvatar switches the rendered presenter.
func (c *Client) ChangeAvatar(ctx context.Context, avatar string) error {
	return c.post(ctx, "/api/avatar/change", map[string]string{"avatar": avatar})
}

// Notify forwards an arbitrary studio event so the renderer can react,
// for example waving at a gift.
func (c *Client) Notify(ctx context.Context, event string, payload any) error {
	return c.post(ctx, "/api/event", map[string]any{"event": event, "data": payload})
}

// FrameURL builds the MJPEG frame stream URL for the dashboard to proxy
// or redirect to. Empty when the backend is disabled.
func (c *Client) FrameURL(gesture string, speaking bool, text string) string {
	if !c.Enabled() {
		return ""
	}
	q := url.Values{}
	if gesture != "" {
		q.Set("gesture", gesture)
	}
	q.Set("speaking", strconv.FormatBool(speaking))
	if text != "" {
		q.Set("text", text)
	}
	return c.baseURL + "/api/frame/avatar_stream?" + q.Encode()
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("encode %s payload: %w", path, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("avatar backend %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("avatar backend %s: status %d", path, resp.StatusCode)
	}
	c.logger.Debug("avatar backend call", zap.String("path", path), zap.Int("status", resp.StatusCode))
	return nil
}
