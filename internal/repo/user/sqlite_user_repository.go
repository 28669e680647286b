package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/onlineexam/examsvc/internal/domain"
	"github.com/onlineexam/examsvc/internal/infra/logging"
)

// SQLiteUserRepositoryConfig holds configuration for the SQLite user repository.
type SQLiteUserRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" envDefault:"var/storage/examsvc.db"`
}

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a factory function that returns a new SQLiteUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteUserRepositoryFactory(cfg SQLiteUserRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(cfg)
	}
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository with the given configuration.
// It initializes the database connection and creates the schema if needed.
// Returns an error if database connection or initialization fails.
func NewSQLiteUserRepository(cfg SQLiteUserRepositoryConfig) (*SQLiteUserRepository, error) {
	log := logging.GetLogger("repo.user.sqlite_user_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// busy_timeout is a per-connection setting
	db, err := sql.Open("sqlite", cfg.DatabasePath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeSQLiteDB(db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.Debug("user repository opened")

	return &SQLiteUserRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeSQLiteDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT    NOT NULL UNIQUE,
			username   TEXT    NOT NULL UNIQUE,
			first_name TEXT    NOT NULL DEFAULT '',
			last_name  TEXT    NOT NULL DEFAULT '',
			phone      TEXT    NOT NULL DEFAULT '',
			role       TEXT    NOT NULL DEFAULT '',
			password   TEXT    NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// ExistsByEmail implements Repository.ExistsByEmail using SQLite.
func (r *SQLiteUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)", email)
}

// ExistsByUsername implements Repository.ExistsByUsername using SQLite.
func (r *SQLiteUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)", username)
}

func (r *SQLiteUserRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found bool

	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}

	return found, nil
}

// Save implements Repository.Save using SQLite.
func (r *SQLiteUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	user.CreatedAt = time.Now().Unix()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, username, first_name, last_name, phone, role, password, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Password,
		user.CreatedAt,
	)
	if err != nil {
		if dupErr := sqliteDuplicateError(err, user); dupErr != nil {
			err = errors.Join(dupErr, err)
		}

		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("last insert id: %w", err)
	}

	user.ID = id

	return user, nil
}

// sqliteDuplicateError maps a UNIQUE constraint violation to the domain error of the failing column.
func sqliteDuplicateError(err error, user domain.User) *domain.DuplicateError {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) || liteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return nil
	}

	msg := liteErr.Error()

	switch {
	case strings.Contains(msg, "users.email"):
		return domain.NewDuplicateEmailError(user.Email)
	case strings.Contains(msg, "users.username"):
		return domain.NewDuplicateUsernameError(user.Username)
	default:
		return nil
	}
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteUserRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
