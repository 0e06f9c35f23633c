// Package session хранит состояние диалога каждого актора и сериализует его изменения.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"PharmaBot/internal/metrics"
)

// ErrStaleVersion - в хранилище уже лежит более новая версия сессии.
var ErrStaleVersion = errors.New("session: stale version")

// Backend - долговременное хранилище сессий (Postgres). Может отсутствовать.
type Backend interface {
	Load(ctx context.Context, actorID int64) (Session, bool, error)
	// Save пишет сессию, только если сохранённая версия меньше s.Version.
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, actorID int64) error
}

// UpdateFunc получает копию текущей сессии и возвращает новую.
// Ошибка означает, что переход не состоялся и ничего не коммитится.
type UpdateFunc func(Session) (Session, error)

// Manager - in-memory сессии с опциональной записью в Backend.
// Все изменения одного актора проходят под его личным мьютексом.
type Manager struct {
	backend Backend
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex // защищает sessions и locks
	sessions map[int64]Session
	locks    map[int64]*sync.Mutex
}

// NewManager создаёт менеджер. backend == nil - только память.
func NewManager(backend Backend, log *zap.Logger, m *metrics.Metrics) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		backend:  backend,
		log:      log.Named("session"),
		metrics:  m,
		now:      time.Now,
		sessions: make(map[int64]Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// lockFor получает или создаёт мьютекс актора.
func (m *Manager) lockFor(actorID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[actorID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[actorID] = l
	}
	return l
}

// load читает сессию из памяти, затем из backend. Вызывается под мьютексом актора.
func (m *Manager) load(ctx context.Context, actorID int64) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[actorID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	if m.backend != nil {
		stored, found, err := m.backend.Load(ctx, actorID)
		if err != nil {
			return Session{}, fmt.Errorf("load session %d: %w", actorID, err)
		}
		if found {
			m.put(stored)
			return stored, nil
		}
	}
	return New(actorID, ""), nil
}

func (m *Manager) put(s Session) {
	m.mu.Lock()
	m.sessions[s.ActorID] = s
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
}

// Get возвращает копию текущей сессии актора.
func (m *Manager) Get(ctx context.Context, actorID int64) (Session, error) {
	l := m.lockFor(actorID)
	l.Lock()
	defer l.Unlock()
	s, err := m.load(ctx, actorID)
	if err != nil {
		return Session{}, err
	}
	return s.Clone(), nil
}

// Update выполняет read-modify-write под мьютексом актора.
// Новая сессия сначала пишется в backend, затем заменяет копию в памяти.
// Если fn или запись вернули ошибку, закоммиченная сессия не меняется.
func (m *Manager) Update(ctx context.Context, actorID int64, fn UpdateFunc) (Session, error) {
	l := m.lockFor(actorID)
	l.Lock()
	defer l.Unlock()

	cur, err := m.load(ctx, actorID)
	if err != nil {
		return Session{}, err
	}

	next, err := fn(cur.Clone())
	if err != nil {
		return cur.Clone(), err
	}
	next.ActorID = actorID
	next.Version = cur.Version + 1
	next.UpdatedAt = m.now().UTC()

	if m.backend != nil {
		if err := m.backend.Save(ctx, next); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				// В хранилище версия новее: выбрасываем кэш, следующий вызов перечитает.
				m.mu.Lock()
				delete(m.sessions, actorID)
				m.mu.Unlock()
			}
			m.log.Error("failed to persist session",
				zap.Int64("actor_id", actorID),
				zap.String("stage", string(next.Stage)),
				zap.Error(err))
			return cur.Clone(), fmt.Errorf("persist session %d: %w", actorID, err)
		}
	}
	m.put(next)
	m.log.Debug("session committed",
		zap.Int64("actor_id", actorID),
		zap.String("role", string(next.Role)),
		zap.String("from", string(cur.Stage)),
		zap.String("to", string(next.Stage)),
		zap.Int64("version", next.Version))
	return next.Clone(), nil
}

// Forget удаляет сессию из памяти и из backend.
// Внутри Update того же актора не вызывать: мьютекс актора не реентерабелен.
func (m *Manager) Forget(ctx context.Context, actorID int64) error {
	l := m.lockFor(actorID)
	l.Lock()
	defer l.Unlock()
	if m.backend != nil {
		if err := m.backend.Delete(ctx, actorID); err != nil {
			return fmt.Errorf("delete session %d: %w", actorID, err)
		}
	}
	m.mu.Lock()
	delete(m.sessions, actorID)
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
	return nil
}

// Len - число сессий в памяти.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
