package models

import (
	"time"

	"github.com/google/uuid"
)

// StreamState is the lifecycle state of the broadcast session.
type StreamState string

const (
	StateIdle StreamState = "idle"
	StateLive StreamState = "live"
)

// StreamSettings is captured once when the stream starts and is read-only
// for the rest of the session.
type StreamSettings struct {
	Quality        string `json:"quality"`
	BitrateKbps    int    `json:"bitrate_kbps"`
	FPS            int    `json:"fps"`
	Background     string `json:"background"`
	SelectedAvatar string `json:"avatar"`
}

// VoiceConfig tunes speech synthesis. Unlike StreamSettings it stays
// adjustable mid-session and is bound to script lines at dispatch time.
type VoiceConfig struct {
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
	Pitch float64 `json:"pitch"`
}

// AutoReplies toggles the automatic host reactions that enqueue script
// lines on engagement events.
type AutoReplies struct {
	Greeting     bool `json:"greeting"`
	ThankGift    bool `json:"thank_gift"`
	ConfirmOrder bool `json:"confirm_order"`
}

// StreamSession is the single live/idle broadcast lifecycle instance.
// Exactly one exists per process; only the session manager mutates it.
type StreamSession struct {
	ID             uuid.UUID      `json:"id"`
	State          StreamState    `json:"state"`
	Settings       StreamSettings `json:"settings"`
	StartedAt      time.Time      `json:"started_at"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
}
