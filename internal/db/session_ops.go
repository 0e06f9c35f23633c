package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/session"
)

// SessionRepo хранит сессии в bot_sessions. Реализует session.Backend.
type SessionRepo struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSessionRepo(db *sql.DB, log *zap.Logger) *SessionRepo {
	return &SessionRepo{db: db, log: log.Named("session_repo")}
}

// Load читает сессию актора. found == false, если строки нет.
func (r *SessionRepo) Load(ctx context.Context, actorID int64) (session.Session, bool, error) {
	var (
		s       session.Session
		role    string
		stage   string
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, `
        SELECT role, stage, payload, version, updated_at
        FROM bot_sessions WHERE actor_id = $1`, actorID).Scan(&role, &stage, &payload, &s.Version, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("select session %d: %w", actorID, err)
	}

	version, updatedAt := s.Version, s.UpdatedAt
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &s); err != nil {
			// Битый payload не должен блокировать пользователя: начинаем с idle.
			r.log.Warn("не удалось разобрать payload сессии, сброс", zap.Int64("actor_id", actorID), zap.Error(err))
			s = session.New(actorID, constants.Role(role))
		}
	}
	s.ActorID = actorID
	s.Role = constants.Role(role)
	s.Stage = constants.Stage(stage)
	s.Version = version
	s.UpdatedAt = updatedAt
	return s, true, nil
}

// Save - upsert с проверкой версии. Если в таблице версия не меньше, возвращает session.ErrStaleVersion.
func (r *SessionRepo) Save(ctx context.Context, s session.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %d: %w", s.ActorID, err)
	}
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO bot_sessions (actor_id, role, stage, payload, version, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (actor_id) DO UPDATE SET
            role = EXCLUDED.role,
            stage = EXCLUDED.stage,
            payload = EXCLUDED.payload,
            version = EXCLUDED.version,
            updated_at = EXCLUDED.updated_at
        WHERE bot_sessions.version < EXCLUDED.version`,
		s.ActorID, string(s.Role), string(s.Stage), payload, s.Version, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session %d: %w", s.ActorID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert session %d: %w", s.ActorID, err)
	}
	if n == 0 {
		return session.ErrStaleVersion
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, actorID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bot_sessions WHERE actor_id = $1`, actorID); err != nil {
		return fmt.Errorf("delete session %d: %w", actorID, err)
	}
	return nil
}

// Ping для /readyz.
func (r *SessionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
