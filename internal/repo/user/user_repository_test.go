package user_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlineexam/examsvc/internal/repo/user"
)

func TestNewRepositoryFactory(t *testing.T) {
	t.Parallel()

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()

		factory, err := user.NewRepositoryFactory(user.RepositoryConfig{
			Backend: user.BackendSQLite,
			SQLite:  user.SQLiteUserRepositoryConfig{DatabasePath: filepath.Join(t.TempDir(), "users.db")},
		})
		require.NoError(t, err)

		repo, err := factory()
		require.NoError(t, err)
		assert.IsType(t, &user.SQLiteUserRepository{}, repo)
		assert.NoError(t, repo.Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		_, err := user.NewRepositoryFactory(user.RepositoryConfig{Backend: "cassandra"})
		assert.ErrorIs(t, err, user.ErrUnknownBackend)
	})

	for _, backend := range []string{user.BackendPostgres, user.BackendMongo} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			factory, err := user.NewRepositoryFactory(user.RepositoryConfig{Backend: backend})
			require.NoError(t, err)
			assert.NotNil(t, factory)
		})
	}
}
