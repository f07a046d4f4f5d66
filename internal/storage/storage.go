// Package storage persists users, life spheres, projects and tasks.
//
// Lookups by id return a nil record and a nil error when nothing matches.
// Two backends implement the same interfaces: postgres for deployments and an
// in-memory one for local runs and tests.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harlequingg/lifestrat-api/internal/data"
)

var (
	// ErrDuplicate is returned when a write would break a uniqueness rule:
	// username, email, sphere name per user or project title per user.
	ErrDuplicate = errors.New("storage: duplicate record")
	// ErrEditConflict means the record changed (or vanished) since it was read.
	ErrEditConflict = errors.New("storage: edit conflict")
)

const queryTimeout = 5 * time.Second

type UserStore interface {
	Insert(ctx context.Context, u *data.User) error
	GetByID(ctx context.Context, id int64) (*data.User, error)
	GetByUsername(ctx context.Context, username string) (*data.User, error)
	GetByEmail(ctx context.Context, email string) (*data.User, error)
	Update(ctx context.Context, u *data.User) error
	Delete(ctx context.Context, id int64) error
}

type LifeSphereStore interface {
	Insert(ctx context.Context, s *data.LifeSphere) error
	Get(ctx context.Context, id int64) (*data.LifeSphere, error)
	ListForUser(ctx context.Context, userID int64) ([]data.LifeSphere, error)
	Update(ctx context.Context, s *data.LifeSphere) error
	Delete(ctx context.Context, id int64) error
}

type ProjectStore interface {
	Insert(ctx context.Context, p *data.Project) error
	Get(ctx context.Context, id int64) (*data.Project, error)
	ListForUser(ctx context.Context, userID int64) ([]data.Project, error)
	Update(ctx context.Context, p *data.Project) error
	Delete(ctx context.Context, id int64) error
}

type TaskStore interface {
	Insert(ctx context.Context, t *data.Task) error
	Get(ctx context.Context, id int64) (*data.Task, error)
	ListForUser(ctx context.Context, userID int64) ([]data.Task, error)
	ListForUserByType(ctx context.Context, userID int64, taskType data.TaskType) ([]data.Task, error)
	ListForProject(ctx context.Context, projectID int64) ([]data.Task, error)
	Update(ctx context.Context, t *data.Task) error
	Delete(ctx context.Context, id int64) error
}

type Storage struct {
	Users       UserStore
	LifeSpheres LifeSphereStore
	Projects    ProjectStore
	Tasks       TaskStore

	db *sql.DB
}

type Config struct {
	Backend            string
	DSN                string
	MaxOpenConnections int
	MaxIdleConnections int
	MaxIdleTime        time.Duration
}

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Open connects to the configured backend. For postgres it also brings the
// schema up to date.
func Open(cfg Config) (*Storage, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendPostgres:
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return NewPostgres(db), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func openDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
