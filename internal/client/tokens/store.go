// Package tokens persists the session credentials: a short-lived access token
// and the refresh token used to mint new ones.
//
// The store is the single source of truth shared by the HTTP transport (which
// rotates the access token after a refresh) and the session store (login,
// register, logout). Callers read through it before every request instead of
// caching token values.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/campusmarket/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/campusmarket/internal/dbx"
)

const (
	accessKey  = "access_token"
	refreshKey = "refresh_token"
)

// Pair is the credential pair returned by login, register and refresh.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store reads and writes the persisted credentials. Missing values read as "".
type Store interface {
	Access(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
	Save(ctx context.Context, p Pair) error
	SetAccess(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the pair in the metadata table of the client database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.repo(s.db).Get(ctx, key)
	if errors.Is(err, metadata.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SQLiteStore) Access(ctx context.Context) (string, error) {
	return s.get(ctx, accessKey)
}

func (s *SQLiteStore) Refresh(ctx context.Context) (string, error) {
	return s.get(ctx, refreshKey)
}

// Save writes both tokens in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, p Pair) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		if err := repo.Set(ctx, accessKey, []byte(p.Access)); err != nil {
			return err
		}
		return repo.Set(ctx, refreshKey, []byte(p.Refresh))
	})
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetAccess(ctx context.Context, access string) error {
	if err := s.repo(s.db).Set(ctx, accessKey, []byte(access)); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.repo(s.db).Delete(ctx, accessKey, refreshKey); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// MemoryStore keeps the pair in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Access(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.Access, nil
}

func (m *MemoryStore) Refresh(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.Refresh, nil
}

func (m *MemoryStore) Save(_ context.Context, p Pair) error {
	m.mu.Lock()
	m.pair = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SetAccess(_ context.Context, access string) error {
	m.mu.Lock()
	m.pair.Access = access
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.pair = Pair{}
	m.mu.Unlock()
	return nil
}
