package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"
	"time"

	reposql "github.com/iyhunko/shopping-list/internal/repository/sql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

const (
	migrationsSource = "file://../migrations"
	postgresTag      = "16"
	containerTTL     = 180
)

// TestDB is a migrated postgres running in a throwaway container.
type TestDB struct {
	DB  *sql.DB
	URL string
}

// SetupTestDB starts postgres, applies the migrations and registers cleanup on t.
// It skips in -short mode.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "docker is not reachable")
	pool.MaxWait = 2 * time.Minute

	container, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_USER=shopper",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=shopping",
		},
	}, func(host *docker.HostConfig) {
		host.AutoRemove = true
		host.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "postgres container did not start")
	t.Cleanup(func() {
		if err := pool.Purge(container); err != nil {
			t.Logf("purge postgres container: %v", err)
		}
	})
	require.NoError(t, container.Expire(containerTTL))

	dsn := fmt.Sprintf("postgres://shopper:secret@%s/shopping?sslmode=disable", container.GetHostPort("5432/tcp"))
	slog.Info("waiting for test database", slog.String("url", dsn))

	var db *sql.DB
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db, err = reposql.Open(ctx, dsn)
		return err
	})
	require.NoError(t, err, "postgres never accepted connections")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, reposql.RunMigrations(db, migrationsSource))

	return &TestDB{DB: db, URL: dsn}
}

// TruncateTables empties every table between subtests.
func (tdb *TestDB) TruncateTables(t *testing.T) {
	t.Helper()
	_, err := tdb.DB.ExecContext(context.Background(), `TRUNCATE TABLE events, products`)
	require.NoError(t, err)
}

// CountEvents returns the number of outbox rows with the given status.
func (tdb *TestDB) CountEvents(t *testing.T, status string) int {
	t.Helper()
	n, err := tdb.countEvents(status)
	require.NoError(t, err)
	return n
}

func (tdb *TestDB) countEvents(status string) (int, error) {
	var n int
	err := tdb.DB.QueryRowContext(context.Background(), `SELECT count(*) FROM events WHERE status = $1`, status).Scan(&n)
	return n, err
}
