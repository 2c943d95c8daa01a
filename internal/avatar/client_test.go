package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/larisin-live/backend/internal/models"
)

type recordedCall struct {
	path string
	body map[string]any
}

func newBackend(t *testing.T, status int) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var mu sync.Mutex
	calls := &[]recordedCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		*calls = append(*calls, recordedCall{path: r.URL.Path, body: body})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestClient_Speak(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK)
	c := NewClient(srv.URL, time.Second, nil)

	err := c.Speak(context.Background(), models.SpeakRequest{
		Text:  "Halo semua!",
		Voice: "female-1",
		Speed: 1.0,
	})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("backend saw %d calls, want 1", len(*calls))
	}
	call := (*calls)[0]
	if call.path != "/api/avatar/speak" {
		t.Errorf("path = %q", call.path)
	}
	if call.body["text"] != "Halo semua!" {
		t.Errorf("body = %v", call.body)
	}
}

func TestClient_BackendErrorSurfaces(t *testing.T) {
	srv, _ := newBackend(t, http.StatusInternalServerError)
	c := NewClient(srv.URL, time.Second, nil)

	if err := c.StreamStop(context.Background()); err == nil {
		t.Error("StreamStop should report a 500 backend")
	}
}

func TestClient_DisabledWhenNoBaseURL(t *testing.T) {
	c := NewClient("", time.Second, nil)
	if c.Enabled() {
		t.Error("empty base URL should disable the client")
	}
	if err := c.Speak(context.Background(), models.SpeakRequest{Text: "x"}); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
	if got := c.FrameURL("wave", true, "hi"); got != "" {
		t.Errorf("FrameURL = %q, want empty", got)
	}
}

func TestClient_FrameURL(t *testing.T) {
	c := NewClient("http://localhost:5000/", time.Second, nil)
	raw := c.FrameURL("wave", true, "halo")
	if !strings.HasPrefix(raw, "http://localhost:5000/api/frame/avatar_stream?") {
		t.Fatalf("FrameURL = %q", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("gesture") != "wave" || q.Get("speaking") != "true" || q.Get("text") != "halo" {
		t.Errorf("query = %v", q)
	}
}

func TestClient_ChangeAvatarPath(t *testing.T) {
	srv, calls := newBackend(t, http.StatusOK)
	c := NewClient(srv.URL, time.Second, nil)

	if err := c.ChangeAvatar(context.Background(), "professional-female"); err != nil {
		t.Fatalf("ChangeAvatar: %v", err)
	}
	call := (*calls)[0]
	if call.path != "/api/avatar/change" || call.body["avatar"] != "professional-female" {
		t.Errorf("call = %+v", call)
	}
}
