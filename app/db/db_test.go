package database

import (
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-directory-search/config"
)

func TestNewDatabaseConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("missing host", func(t *testing.T) {
		_, err := NewDatabaseConfig(&config.Config{}, logger)
		require.Error(t, err)
	})

	t.Run("builds postgresql url", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Repositories.Postgres.Host = "db"
		cfg.Repositories.Postgres.Port = "5432"
		cfg.Repositories.Postgres.Username = "directory"
		cfg.Repositories.Postgres.Password = "p@ss"
		cfg.Repositories.Postgres.DB = "listings"
		cfg.Repositories.Postgres.MAXCONWAITINGTIME = 10

		dbCfg, err := NewDatabaseConfig(cfg, logger)
		require.NoError(t, err)

		u, err := url.Parse(dbCfg.ConnectionURL)
		require.NoError(t, err)
		assert.Equal(t, "postgresql", u.Scheme)
		assert.Equal(t, "db:5432", u.Host)
		assert.Equal(t, "/listings", u.Path)
		pass, _ := u.User.Password()
		assert.Equal(t, "p@ss", pass)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
		assert.Equal(t, "10", u.Query().Get("connect_timeout"))
	})
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
