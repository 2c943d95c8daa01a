// Package session owns the broadcast lifecycle: the idle/live state
// machine, the timers scoped to a session, and the fan-out to the
// dispatch queue, flash sales, auto-pitch, and engagement simulation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/larisin-live/backend/internal/catalog"
	"github.com/larisin-live/backend/internal/dispatch"
	"github.com/larisin-live/backend/internal/engage"
	"github.com/larisin-live/backend/internal/models"
	"github.com/larisin-live/backend/pkg/timer"
)

// ErrAlreadyLive is returned when start is called on a live session.
var ErrAlreadyLive = errors.New("stream already live")

const (
	durationKey   = "session:duration"
	notifyTimeout = 5 * time.Second
)

// Bus publishes events to the presentation layer.
type Bus interface {
	Publish(event string, payload any)
}

// Notifier is the external avatar/speech backend. Calls are best-effort:
// the session's own state is authoritative and never rolls back because a
// notification failed.
type Notifier interface {
	StreamStart(ctx context.Context, settings models.StreamSettings) error
	StreamStop(ctx context.Context) error
	Speak(ctx context.Context, req models.SpeakRequest) error
	ChangeAvatar(ctx context.Context, avatar string) error
	Notify(ctx context.Context, event string, payload any) error
}

// noopNotifier stands in when no avatar backend is configured.
type noopNotifier struct{}

func (noopNotifier) StreamStart(context.Context, models.StreamSettings) error { return nil }
func (noopNotifier) StreamStop(context.Context) error                         { return nil }
func (noopNotifier) Speak(context.Context, models.SpeakRequest) error         { return nil }
func (noopNotifier) ChangeAvatar(context.Context, string) error               { return nil }
func (noopNotifier) Notify(context.Context, string, any) error                { return nil }

// Config holds the session timing knobs.
type Config struct {
	SpeakCooldown     time.Duration
	AutoPitchInterval time.Duration
	ReplyDelay        time.Duration
	DurationTick      time.Duration
}

func (c Config) withDefaults() Config {
	if c.SpeakCooldown <= 0 {
		c.SpeakCooldown = dispatch.DefaultCooldown
	}
	if c.AutoPitchInterval <= 0 {
		c.AutoPitchInterval = DefaultAutoPitchInterval
	}
	if c.ReplyDelay <= 0 {
		c.ReplyDelay = time.Second
	}
	if c.DurationTick <= 0 {
		c.DurationTick = time.Second
	}
	return c
}

// Manager is the session state machine. Exactly one exists per process;
// every session-scoped timer is started and cancelled here.
type Manager struct {
	reg    *timer.Registry
	store  *catalog.Store
	flash  *catalog.FlashSaleManager
	sim    *engage.Simulator
	bus    Bus
	avatar Notifier
	rng    engage.Rand
	cfg    Config
	logger *zap.Logger

	queue     *dispatch.Queue
	autoPitch *AutoPitchScheduler

	mu          sync.Mutex
	session     models.StreamSession
	voice       models.VoiceConfig
	avatarType  string
	avatarOn    bool
	autoReplies models.AutoReplies
}

// NewManager wires the session orchestrator. The manager constructs its
// own dispatch queue (it is the queue's speaker) and auto-pitch scheduler.
func NewManager(reg *timer.Registry, store *catalog.Store, flash *catalog.FlashSaleManager, sim *engage.Simulator, bus Bus, avatar Notifier, rng engage.Rand, cfg Config, logger *zap.Logger) *Manager {
	if rng == nil {
		rng = engage.NewRand()
	}
	if avatar == nil {
		avatar = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		reg:        reg,
		store:      store,
		flash:      flash,
		sim:        sim,
		bus:        bus,
		avatar:     avatar,
		rng:        rng,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		session:    models.StreamSession{State: models.StateIdle},
		voice:      models.VoiceConfig{Voice: "female-1", Speed: 1.0, Pitch: 0},
		avatarType: "default",
		avatarOn:   true,
	}
	m.queue = dispatch.NewQueue(m, m.cfg.SpeakCooldown, logger)
	m.autoPitch = NewAutoPitchScheduler(reg, m.cfg.AutoPitchInterval, m.autoPitchTick, logger)
	return m
}

// Start transitions Idle -> Live: captures the settings, begins the
// duration tick, starts the engagement simulator, and resumes queue
// draining. Returns ErrAlreadyLive when the session is already live.
func (m *Manager) Start(settings models.StreamSettings) (models.StreamSession, error) {
	m.mu.Lock()
	if m.session.State == models.StateLive {
		m.mu.Unlock()
		return models.StreamSession{}, ErrAlreadyLive
	}
	if settings.SelectedAvatar == "" {
		settings.SelectedAvatar = m.avatarType
	}
	m.session = models.StreamSession{
		ID:        uuid.New(),
		State:     models.StateLive,
		Settings:  settings,
		StartedAt: time.Now(),
	}
	snap := m.session
	m.mu.Unlock()

	m.reg.Replace(durationKey, m.cfg.DurationTick, func() bool {
		m.tickDuration()
		return true
	})
	m.sim.Start()
	m.queue.Resume()
	m.queue.Enqueue(catalog.OpeningScript())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := m.avatar.StreamStart(ctx, snap.Settings); err != nil {
			m.logger.Warn("avatar backend stream start failed", zap.Error(err))
			m.bus.Publish("stream_error", map[string]any{"message": "avatar backend unavailable"})
		}
	}()

	m.bus.Publish("stream_started", map[string]any{"success": true, "session": snap})
	m.logger.Info("stream started",
		zap.String("session_id", snap.ID.String()),
		zap.String("quality", settings.Quality),
		zap.String("avatar", settings.SelectedAvatar),
	)
	return snap, nil
}

// Stop transitions Live -> Idle: cancels the duration tick, stops the
// engagement simulator, and halts the drain loop with queued lines kept
// for the next start. Stopping an idle session is a no-op, not an error.
// Armed flash-sale countdowns keep running: they belong to products, not
// to the session.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.session.State != models.StateLive {
		m.mu.Unlock()
		return
	}
	m.session.State = models.StateIdle
	m.mu.Unlock()

	m.reg.Cancel(durationKey)
	m.sim.Stop()
	m.queue.Halt()
	m.notify("stream_stop", m.avatar.StreamStop)

	m.bus.Publish("stream_stopped", map[string]any{"success": true})
	m.logger.Info("stream stopped", zap.Int("queued", m.queue.Len()))
}

// Live reports whether the session is live.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State == models.StateLive
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() models.StreamSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Queue exposes the dispatch queue for snapshots.
func (m *Manager) Queue() *dispatch.Queue {
	return m.queue
}

// tickDuration advances the elapsed counter and republishes the formatted
// duration. Cosmetic telemetry, not a correctness-bearing value.
func (m *Manager) tickDuration() {
	m.mu.Lock()
	if m.session.State != models.StateLive {
		m.mu.Unlock()
		return
	}
	m.session.ElapsedSeconds++
	elapsed := m.session.ElapsedSeconds
	m.mu.Unlock()
	m.bus.Publish("duration", FormatDuration(elapsed))
}

// FormatDuration renders elapsed seconds as hh:mm:ss.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// Speak implements dispatch.Speaker: the current avatar and voice
// configuration are bound to the line here, at dispatch time, so mid-queue
// adjustments apply to every line still pending.
func (m *Manager) Speak(item models.ScriptItem) {
	req := m.speakRequest(item.Text)
	m.bus.Publish("speak", req)
	m.notify("speak", func(ctx context.Context) error {
		return m.avatar.Speak(ctx, req)
	})
}

func (m *Manager) speakRequest(text string) models.SpeakRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.SpeakRequest{
		Text:   text,
		Avatar: m.avatarType,
		Voice:  m.voice.Voice,
		Speed:  m.voice.Speed,
		Pitch:  m.voice.Pitch,
	}
}

// EnqueueScript appends a line to the dispatch queue.
func (m *Manager) EnqueueScript(text string) models.ScriptItem {
	item := m.queue.Enqueue(text)
	m.bus.Publish("script_queued", item)
	return item
}

// RemoveScript drops a pending line.
func (m *Manager) RemoveScript(id int64) bool {
	if !m.queue.Remove(id) {
		return false
	}
	m.bus.Publish("script_removed", map[string]any{"id": id})
	return true
}

// SpeakNow forwards a line straight to the avatar backend, bypassing the
// queue.
func (m *Manager) SpeakNow(req models.SpeakRequest) {
	m.notify("speak", func(ctx context.Context) error {
		return m.avatar.Speak(ctx, req)
	})
}

// AddProduct registers a product and announces it.
func (m *Manager) AddProduct(p *models.Product) models.Product {
	m.store.Add(p)
	m.bus.Publish("product_added", *p)
	m.logger.Info("product added", zap.String("name", p.Name))
	return *p
}

// RemoveProduct deletes a product and disarms its flash-sale countdown.
func (m *Manager) RemoveProduct(id uuid.UUID) bool {
	if !m.store.Delete(id) {
		return false
	}
	m.flash.Disarm(id)
	m.bus.Publish("product_removed", map[string]any{"product_id": id})
	return true
}

// PitchProduct enqueues the product's pitch script as one batch and arms
// its flash sale when flagged.
func (m *Manager) PitchProduct(id uuid.UUID) ([]models.ScriptItem, error) {
	p, ok := m.store.Get(id)
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	if p.IsFlashSale {
		m.flash.Arm(p)
	}
	items := m.queue.EnqueueBatch(catalog.BuildPitchScript(p))
	m.bus.Publish("product_pitched", map[string]any{"product_id": p.ID, "lines": len(items)})
	return items, nil
}

// ConfirmOrder publishes and applies an order confirmed by the operator.
func (m *Manager) ConfirmOrder(o models.Order) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	m.bus.Publish("new_order", o)
	m.ApplyOrder(o)
}

// ApplyOrder folds an order into inventory and the sales aggregate. An
// order naming an unknown product is a silent inventory no-op but still
// counts toward the aggregate, matching the lenient storefront semantics.
func (m *Manager) ApplyOrder(o models.Order) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	product, found := m.store.ApplyOrder(o)
	if found {
		m.bus.Publish("product_updated", product)
	} else {
		m.logger.Debug("order references unknown product", zap.String("product", o.Product))
	}
	m.bus.Publish("sales_stats", m.store.Stats())
	if m.repliesSnapshot().ConfirmOrder {
		m.delayedReply(catalog.OrderThanksScript(o.Customer, o.Product))
	}
	m.logger.Info("order applied",
		zap.String("customer", o.Customer),
		zap.String("product", o.Product),
		zap.Int("quantity", o.Quantity),
	)
}

// HandleChat reacts to a viewer chat message.
func (m *Manager) HandleChat(msg models.ChatMessage) {
	if msg.IsNewUser && m.repliesSnapshot().Greeting {
		m.delayedReply(catalog.GreetingScript(msg.Username))
	}
}

// HandleGift reacts to a viewer gift.
func (m *Manager) HandleGift(g models.Gift) {
	if m.repliesSnapshot().ThankGift {
		m.delayedReply(catalog.GiftThanksScript(g.Username, g.GiftName))
	}
}

// delayedReply enqueues an automatic host reply after a short beat, so it
// lands after the event it reacts to has rendered.
func (m *Manager) delayedReply(text string) {
	key := "reply:" + uuid.NewString()
	m.reg.After(key, m.cfg.ReplyDelay, func() {
		m.queue.Enqueue(text)
	})
}

// SetVoice updates the speech configuration applied at dispatch time.
func (m *Manager) SetVoice(v models.VoiceConfig) {
	m.mu.Lock()
	m.voice = v
	m.mu.Unlock()
	m.bus.Publish("voice_changed", v)
}

// Voice returns the current speech configuration.
func (m *Manager) Voice() models.VoiceConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voice
}

// ChangeAvatar switches the active avatar; future speak dispatches carry
// the new one.
func (m *Manager) ChangeAvatar(avatar string) {
	m.mu.Lock()
	m.avatarType = avatar
	m.mu.Unlock()
	m.notify("avatar_change", func(ctx context.Context) error {
		return m.avatar.ChangeAvatar(ctx, avatar)
	})
	m.bus.Publish("avatar_changed", map[string]any{"avatar": avatar})
}

// ToggleAvatar switches avatar rendering on or off.
func (m *Manager) ToggleAvatar(enabled bool) {
	m.mu.Lock()
	m.avatarOn = enabled
	m.mu.Unlock()
	m.notify("toggle_avatar", func(ctx context.Context) error {
		return m.avatar.Notify(ctx, "toggle_avatar", map[string]any{"enabled": enabled})
	})
	m.bus.Publish("avatar_toggled", map[string]any{"enabled": enabled})
}

// SetAutoPitch enables or disables the auto-pitch scheduler. Disabling
// cancels the recurring trigger outright; enabling restarts the interval
// window from zero.
func (m *Manager) SetAutoPitch(enabled bool) {
	if enabled {
		m.autoPitch.Enable()
	} else {
		m.autoPitch.Disable()
	}
	m.bus.Publish("auto_pitch", map[string]any{"enabled": enabled})
}

// AutoPitchEnabled reports whether the scheduler is armed.
func (m *Manager) AutoPitchEnabled() bool {
	return m.autoPitch.Enabled()
}

// SetAutoReplies updates the automatic reaction toggles.
func (m *Manager) SetAutoReplies(a models.AutoReplies) {
	m.mu.Lock()
	m.autoReplies = a
	m.mu.Unlock()
	m.bus.Publish("auto_replies", a)
}

func (m *Manager) repliesSnapshot() models.AutoReplies {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoReplies
}

// SendChat relays an operator chat message. There is no real platform to
// deliver to, so this only acknowledges.
func (m *Manager) SendChat(message string) {
	m.logger.Info("chat sent", zap.String("message", message))
	m.bus.Publish("chat_sent", map[string]any{"success": true})
}

// autoPitchTick picks one product uniformly at random and pitches it.
// Skipped while idle or when the catalog is empty.
func (m *Manager) autoPitchTick() {
	if !m.Live() {
		return
	}
	list := m.store.List()
	if len(list) == 0 {
		return
	}
	p := list[m.rng.Intn(len(list))]
	if _, err := m.PitchProduct(p.ID); err == nil {
		m.logger.Info("auto pitch", zap.String("product", p.Name))
	}
}

// Snapshot is the combined session and telemetry readout.
type Snapshot struct {
	Session    models.StreamSession   `json:"session"`
	Duration   string                 `json:"duration"`
	Engagement models.EngagementStats `json:"engagement"`
	Sales      models.SalesStats      `json:"sales"`
	QueueLen   int                    `json:"queue_length"`
	AutoPitch  bool                   `json:"auto_pitch"`
}

// Snapshot returns the current combined readout.
func (m *Manager) Snapshot() Snapshot {
	sess := m.Session()
	return Snapshot{
		Session:    sess,
		Duration:   FormatDuration(sess.ElapsedSeconds),
		Engagement: m.sim.Stats(),
		Sales:      m.store.Stats(),
		QueueLen:   m.queue.Len(),
		AutoPitch:  m.AutoPitchEnabled(),
	}
}

// notify runs an avatar backend call in the background; failures are
// logged, never fatal.
func (m *Manager) notify(op string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.logger.Warn("avatar backend notify failed", zap.String("op", op), zap.Error(err))
		}
	}()
}
