package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/upstream"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMaxSessions is returned when MAX_SESSIONS connections are already open
var ErrMaxSessions = errors.New("maximum sessions reached")

// OpenFunc opens the upstream for a new session
type OpenFunc func(ctx context.Context, down upstream.Downstream) upstream.Session

// Manager manages all client sessions
type Manager struct {
	sessions     map[string]*ClientSession
	mu           sync.RWMutex
	redis        *redis.Client
	config       *config.Config
	openUpstream OpenFunc
}

// NewManager creates a session manager. Redis is optional: when unreachable
// sessions are tracked in memory only.
func NewManager(cfg *config.Config, open OpenFunc) *Manager {
	return &Manager{
		sessions:     make(map[string]*ClientSession),
		redis:        connectRedis(cfg),
		config:       cfg,
		openUpstream: open,
	}
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unavailable at %s, tracking sessions in memory only: %v", cfg.RedisURL, err)
		redisClient.Close()
		return nil
	}

	log.Printf("✅ Connected to Redis at %s", cfg.RedisURL)
	return redisClient
}

// CreateSession registers a connection and opens its upstream. The upstream
// never fails to open: unavailable providers are replaced by the mock.
func (sm *Manager) CreateSession(ctx context.Context, clientConn Conn) (*ClientSession, error) {
	sm.mu.Lock()
	if len(sm.sessions) >= sm.config.MaxSessions {
		sm.mu.Unlock()
		return nil, ErrMaxSessions
	}

	session := NewClientSession(uuid.New().String(), clientConn, sm.config.KeepAlivePeriod)
	session.OnClose = sm.forget
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	// Dialing can take seconds; don't hold the map lock meanwhile
	up := sm.openUpstream(ctx, session)
	session.SetUpstream(up)

	sm.mirror(ctx, session, up)
	log.Printf("🔗 [%s] Upstream %s session %s attached", session.ID[:8], up.Kind(), up.ID())
	return session, nil
}

// mirror saves session metadata to Redis
func (sm *Manager) mirror(ctx context.Context, session *ClientSession, up upstream.Session) {
	if sm.redis == nil {
		return
	}

	key := "session:" + session.ID
	pipe := sm.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"created_at":    session.CreatedAt.Format(time.RFC3339),
		"status":        "active",
		"upstream_kind": up.Kind().String(),
		"upstream_id":   up.ID(),
	})
	pipe.SAdd(ctx, "active_sessions", session.ID)
	pipe.Expire(ctx, key, sm.config.SessionTimeout)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("⚠️ [%s] Failed to mirror session to Redis: %v", session.ID[:8], err)
	}
}

// forget drops a closing session from the map and from Redis
func (sm *Manager) forget(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		sm.redis.Del(ctx, "session:"+sessionID)
		sm.redis.SRem(ctx, "active_sessions", sessionID)
	}
}

// GetSession retrieves a session by ID
func (sm *Manager) GetSession(sessionID string) (*ClientSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	return session, exists
}

// RemoveSession closes a session; closing removes it from the map
func (sm *Manager) RemoveSession(sessionID string) {
	if session, ok := sm.GetSession(sessionID); ok {
		session.Close()
	}
}

// GetActiveSessionCount returns current session count
func (sm *Manager) GetActiveSessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CleanupInactiveSessions closes sessions that have been idle too long
func (sm *Manager) CleanupInactiveSessions() {
	now := time.Now()

	for _, session := range sm.snapshot() {
		if session.Idle(now) > sm.config.SessionTimeout {
			log.Printf("🧹 [%s] Closing inactive session", session.ID[:8])
			session.Close()
		}
	}
}

// StartCleanupRoutine starts periodic cleanup of inactive sessions
func (sm *Manager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.CleanupInactiveSessions()
		}
	}
}

// Shutdown closes all sessions
func (sm *Manager) Shutdown() {
	for _, session := range sm.snapshot() {
		session.Close()
	}

	if sm.redis != nil {
		sm.redis.Close()
	}
}

func (sm *Manager) snapshot() []*ClientSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*ClientSession, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}
