package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/larisin-live/backend/pkg/timer"
)

// DefaultAutoPitchInterval is how often auto-pitch fires when no override
// is configured.
const DefaultAutoPitchInterval = 5 * time.Minute

const autoPitchKey = "session:autopitch"

// AutoPitchScheduler periodically pitches a random product while the
// session is live. The interval check lives in the pitch callback, not
// here: the trigger stays armed across stop/start so the operator's
// toggle is the only thing that disables it.
type AutoPitchScheduler struct {
	reg      *timer.Registry
	interval time.Duration
	pitch    func()
	logger   *zap.Logger
}

func NewAutoPitchScheduler(reg *timer.Registry, interval time.Duration, pitch func(), logger *zap.Logger) *AutoPitchScheduler {
	if interval <= 0 {
		interval = DefaultAutoPitchInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoPitchScheduler{reg: reg, interval: interval, pitch: pitch, logger: logger}
}

// Enable arms the recurring trigger. Re-enabling restarts the interval
// window from zero.
func (s *AutoPitchScheduler) Enable() {
	s.reg.Replace(autoPitchKey, s.interval, func() bool {
		s.pitch()
		return true
	})
	s.logger.Info("auto pitch enabled", zap.Duration("interval", s.interval))
}

// Disable cancels the trigger outright.
func (s *AutoPitchScheduler) Disable() {
	if s.reg.Cancel(autoPitchKey) {
		s.logger.Info("auto pitch disabled")
	}
}

// Enabled reports whether the trigger is armed.
func (s *AutoPitchScheduler) Enabled() bool {
	return s.reg.Active(autoPitchKey)
}
