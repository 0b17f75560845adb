package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/gemini-canvas-kit/pkg/generator"
)

const (
	// DefaultTTL は最後の操作からセッションを保持する既定時間です。
	DefaultTTL = 30 * time.Minute
	// DefaultSweepInterval は掃除処理の既定実行間隔です。
	DefaultSweepInterval = 5 * time.Minute
)

// Manager は ID をキーに複数のセッションを管理します。
type Manager struct {
	gen generator.ImageGenerator
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager は Manager を初期化します。ttl が非正の場合は既定値を使います。
func NewManager(gen generator.ImageGenerator, ttl time.Duration) (*Manager, error) {
	if gen == nil {
		return nil, fmt.Errorf("gen (ImageGenerator) is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		gen:      gen,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}, nil
}

// NewID は新しいセッション識別子を発行します。
func NewID() string {
	return uuid.NewString()
}

// ValidID は外部から渡された識別子が発行形式かどうかを検証します。
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GetOrCreate は ID に対応するセッションを返し、無ければ新規作成します。
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.RLock()
	if s, ok := m.sessions[id]; ok {
		m.mu.RUnlock()
		return s
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := newSession(id, m.gen)
	m.sessions[id] = s
	return s
}

// Len は保持中のセッション数を返します。
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor は期限切れセッションの掃除を ctx が生きている間だけ
// 定期実行します。
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := m.sweep(now); removed > 0 {
					slog.Info("期限切れセッションを破棄しました", "count", removed, "remaining", m.Len())
				}
			}
		}
	}()
}

// sweep は TTL を超えて操作の無いセッションを削除し、削除数を返します。
// リモート操作の実行中のセッションは残します。
func (m *Manager) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.busy() {
			continue
		}
		if now.Sub(s.lastTouched()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
