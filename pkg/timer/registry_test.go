package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEvery_FiresRepeatedly(t *testing.T) {
	r := NewRegistry(nil)
	defer r.CancelAll()

	var ticks int64
	if ok := r.Every("tick", 5*time.Millisecond, func() bool {
		atomic.AddInt64(&ticks, 1)
		return true
	}); !ok {
		t.Fatal("Every returned false for a fresh key")
	}

	time.Sleep(60 * time.Millisecond)
	if n := atomic.LoadInt64(&ticks); n < 3 {
		t.Errorf("expected at least 3 ticks, got %d", n)
	}
}

func TestEvery_DuplicateKeyRejected(t *testing.T) {
	r := NewRegistry(nil)
	defer r.CancelAll()

	r.Every("dup", time.Hour, func() bool { return true })
	if r.Every("dup", time.Millisecond, func() bool { return true }) {
		t.Error("second Every under the same key should return false")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 timer, got %d", r.Len())
	}
}

func TestCancel_NoTickAfterReturn(t *testing.T) {
	r := NewRegistry(nil)

	var ticks int64
	r.Every("stop", 5*time.Millisecond, func() bool {
		atomic.AddInt64(&ticks, 1)
		return true
	})
	time.Sleep(30 * time.Millisecond)

	if !r.Cancel("stop") {
		t.Fatal("Cancel returned false for a running timer")
	}
	seen := atomic.LoadInt64(&ticks)
	time.Sleep(30 * time.Millisecond)
	if after := atomic.LoadInt64(&ticks); after != seen {
		t.Errorf("timer ticked after Cancel returned: %d -> %d", seen, after)
	}
	if r.Active("stop") {
		t.Error("cancelled timer still reported active")
	}
}

func TestCancel_Missing(t *testing.T) {
	r := NewRegistry(nil)
	if r.Cancel("nope") {
		t.Error("Cancel of unknown key should return false")
	}
}

func TestAfter_FiresOnceAndRemovesItself(t *testing.T) {
	r := NewRegistry(nil)
	defer r.CancelAll()

	var fired int64
	r.After("once", 5*time.Millisecond, func() {
		atomic.AddInt64(&fired, 1)
	})

	time.Sleep(40 * time.Millisecond)
	if n := atomic.LoadInt64(&fired); n != 1 {
		t.Errorf("expected exactly 1 firing, got %d", n)
	}
	if r.Active("once") {
		t.Error("one-shot timer should remove itself after firing")
	}
}

func TestTickFunc_SelfStop(t *testing.T) {
	r := NewRegistry(nil)
	defer r.CancelAll()

	var ticks int64
	r.Every("countdown", 5*time.Millisecond, func() bool {
		return atomic.AddInt64(&ticks, 1) < 3
	})

	time.Sleep(60 * time.Millisecond)
	if n := atomic.LoadInt64(&ticks); n != 3 {
		t.Errorf("expected exactly 3 ticks, got %d", n)
	}
	if r.Active("countdown") {
		t.Error("self-stopped timer should remove itself")
	}
}

func TestReplace_RestartsTimer(t *testing.T) {
	r := NewRegistry(nil)
	defer r.CancelAll()

	var old, fresh int64
	r.Every("swap", 5*time.Millisecond, func() bool {
		atomic.AddInt64(&old, 1)
		return true
	})
	time.Sleep(20 * time.Millisecond)

	r.Replace("swap", 5*time.Millisecond, func() bool {
		atomic.AddInt64(&fresh, 1)
		return true
	})
	oldSeen := atomic.LoadInt64(&old)
	time.Sleep(30 * time.Millisecond)

	if atomic.LoadInt64(&old) != oldSeen {
		t.Error("replaced timer kept ticking")
	}
	if atomic.LoadInt64(&fresh) == 0 {
		t.Error("replacement timer never ticked")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 timer after Replace, got %d", r.Len())
	}
}

func TestTickPanic_DoesNotHaltTimer(t *testing.T) {
	r := NewRegistry(nil)
	defer r.CancelAll()

	var ticks int64
	r.Every("flaky", 5*time.Millisecond, func() bool {
		if atomic.AddInt64(&ticks, 1) == 1 {
			panic("boom")
		}
		return true
	})

	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt64(&ticks); n < 3 {
		t.Errorf("timer halted after panicking tick, got %d ticks", n)
	}
}

func TestCancelAll(t *testing.T) {
	r := NewRegistry(nil)
	for _, key := range []string{"a", "b", "c"} {
		r.Every(key, time.Millisecond, func() bool { return true })
	}
	r.CancelAll()
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d timers", r.Len())
	}
}
