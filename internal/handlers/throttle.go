package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttleSweepEvery - как часто вычищаются лимитеры неактивных акторов.
const throttleSweepEvery = time.Minute

type throttleEntry struct {
	lim  *rate.Limiter
	last time.Time
}

// Throttle гасит повторные нажатия кнопок одним актором чаще, чем раз в gap.
// Текстовые сообщения через него не проходят.
type Throttle struct {
	gap time.Duration
	now func() time.Time

	mu        sync.Mutex
	limiters  map[int64]*throttleEntry
	lastSweep time.Time
}

// NewThrottle: gap <= 0 отключает ограничение.
func NewThrottle(gap time.Duration) *Throttle {
	return &Throttle{gap: gap, now: time.Now, limiters: make(map[int64]*throttleEntry)}
}

// Allow сообщает, можно ли обработать нажатие.
func (t *Throttle) Allow(actorID int64) bool {
	if t == nil || t.gap <= 0 {
		return true
	}
	now := t.now()
	t.mu.Lock()
	if now.Sub(t.lastSweep) >= throttleSweepEvery {
		t.sweep(now)
	}
	e, ok := t.limiters[actorID]
	if !ok {
		e = &throttleEntry{lim: rate.NewLimiter(rate.Every(t.gap), 1)}
		t.limiters[actorID] = e
	}
	e.last = now
	t.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// sweep удаляет акторов, молчащих дольше gap: их ведро уже полное, новый лимитер ведёт себя так же.
// Вызывается под t.mu.
func (t *Throttle) sweep(now time.Time) {
	for id, e := range t.limiters {
		if now.Sub(e.last) > t.gap {
			delete(t.limiters, id)
		}
	}
	t.lastSweep = now
}
