// Package session stores the last selected entity id per kind.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jask/entitypages/internal/database/repository"
	"github.com/jask/entitypages/internal/page"
)

// Memory keeps active ids in process. It is safe to share between pages.
type Memory struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewMemory() *Memory { return &Memory{ids: map[string]string{}} }

var (
	_ page.SessionService = (*Memory)(nil)
	_ page.SessionService = (*SQL)(nil)
)

func (m *Memory) ActiveID(_ context.Context, kind string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[kind], nil
}

func (m *Memory) SetActiveID(_ context.Context, kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		delete(m.ids, kind)
		return nil
	}
	m.ids[kind] = id
	return nil
}

// SQL keeps active ids in the active_ids table so they survive restarts.
type SQL struct {
	repo *repository.SessionRepo
}

func NewSQL(db *sql.DB) *SQL { return &SQL{repo: repository.NewSessionRepo(db)} }

func (s *SQL) ActiveID(ctx context.Context, kind string) (string, error) {
	id, err := s.repo.Get(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("read active %s: %w", kind, err)
	}
	return id, nil
}

func (s *SQL) SetActiveID(ctx context.Context, kind, id string) error {
	if err := s.repo.Set(ctx, kind, id); err != nil {
		return fmt.Errorf("write active %s: %w", kind, err)
	}
	return nil
}
