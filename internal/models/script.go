package models

import "time"

// ScriptItem is one queued line awaiting speech dispatch. IDs come from a
// per-process monotonic counter so lines enqueued within the same tick
// never collide.
type ScriptItem struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// SpeakRequest is the payload delivered to the avatar backend for one
// spoken line. Avatar and voice settings are filled in at dispatch time,
// not enqueue time.
type SpeakRequest struct {
	Text   string  `json:"text"`
	Avatar string  `json:"avatar"`
	Voice  string  `json:"voice"`
	Speed  float64 `json:"speed"`
	Pitch  float64 `json:"pitch"`
}
