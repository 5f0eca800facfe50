// Package dbtest gives tests a migrated Postgres database. It uses
// BOOKHUB_TEST_DATABASE_URL when set and a throwaway container otherwise.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"bookhub/database"
	"bookhub/internal/config"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

const image = "postgres:16-alpine"

// Open returns a migrated database, skipping the test in -short mode or
// when neither an external database nor Docker is available.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests are skipped in -short mode")
	}

	dsn := os.Getenv("BOOKHUB_TEST_DATABASE_URL")
	if dsn == "" {
		dsn = startContainer(t)
	}

	cfg := config.Default()
	cfg.DatabaseURL = dsn
	db, err := database.ConnectDB(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func startContainer(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pg, err := postgres.Run(ctx, image,
		postgres.WithDatabase("bookhub"),
		postgres.WithUsername("bookhub"),
		postgres.WithPassword("bookhub"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// Reset empties every table so each test starts from a blank schema.
func Reset(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(
		"TRUNCATE reading_progress, quizzes, refresh_tokens, books, users CASCADE",
	).Error)
}
