package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/onlineexam/examsvc/internal/domain"
)

// ErrUnknownBackend is returned when the configured storage backend is not supported.
var ErrUnknownBackend = errors.New("unknown user repository backend")

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// ExistsByEmail reports whether a user with the given email is stored.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername reports whether a user with the given username is stored.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Save persists a new user and returns it with ID and CreatedAt assigned.
	// Returns a *domain.DuplicateError if a unique constraint of the store rejects the user.
	Save(ctx context.Context, user domain.User) (domain.User, error)

	// Close releases any resources held by the repository.
	// Returns an error if cleanup fails.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)

// RepositoryConfig selects and configures the storage backend.
type RepositoryConfig struct {
	// Backend is one of "sqlite", "postgres" or "mongo"
	Backend string `env:"BACKEND" envDefault:"sqlite"`

	SQLite   SQLiteUserRepositoryConfig
	Postgres PostgresUserRepositoryConfig `envPrefix:"POSTGRES_"`
	Mongo    MongoUserRepositoryConfig    `envPrefix:"MONGO_"`
}

// NewRepositoryFactory returns the factory of the backend selected by cfg.Backend.
func NewRepositoryFactory(cfg RepositoryConfig) (RepositoryFactory, error) {
	switch cfg.Backend {
	case BackendSQLite:
		return SQLiteUserRepositoryFactory(cfg.SQLite), nil
	case BackendPostgres:
		return PostgresUserRepositoryFactory(cfg.Postgres), nil
	case BackendMongo:
		return MongoUserRepositoryFactory(cfg.Mongo), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
