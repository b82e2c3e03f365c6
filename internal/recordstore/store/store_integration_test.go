package store

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	rerrors "github.com/abgdnv/storefront/internal/recordstore/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "RECORDSTORE_SVC_SKIP_INTEGRATION_TESTS"

// PgStoreSuite runs the PgStore against a disposable PostgreSQL container.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       RecordStore
	logger      *slog.Logger
	ctx         context.Context
}

func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("records_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")
	for i := range 10 {
		if err = s.dbPool.Ping(s.ctx); err == nil {
			break
		}
		s.logger.Info("Waiting for PostgreSQL", "attempt", i+1)
		time.Sleep(2 * time.Second)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	require.NoError(s.T(), Migrate(connStr), "Failed to apply migrations")
	require.NoError(s.T(), Migrate(connStr), "Migrate must be idempotent")

	s.store = NewPgStore(s.dbPool)
}

func (s *PgStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE records RESTART IDENTITY")
	require.NoError(s.T(), err, "Failed to truncate records table")
}

func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) TestInsertAndList_PreservesOrder() {
	// given
	for _, id := range []string{"c", "a", "b"} {
		_, err := s.store.Insert(s.ctx, "products", id, map[string]any{"name": "item " + id})
		s.Require().NoError(err)
	}
	_, err := s.store.Insert(s.ctx, "other", "x", nil)
	s.Require().NoError(err)

	// when
	recs, err := s.store.List(s.ctx, "products")

	// then
	s.Require().NoError(err)
	s.Require().Len(recs, 3)
	assert.Equal(s.T(), "c", recs[0].ID)
	assert.Equal(s.T(), "a", recs[1].ID)
	assert.Equal(s.T(), "b", recs[2].ID)
	assert.Equal(s.T(), "item a", recs[1].Fields["name"])
}

func (s *PgStoreSuite) TestList_EmptyCollection() {
	recs, err := s.store.List(s.ctx, "products")

	s.Require().NoError(err)
	assert.Empty(s.T(), recs)
}

func (s *PgStoreSuite) TestInsert_Duplicate() {
	_, err := s.store.Insert(s.ctx, "products", "dup", nil)
	s.Require().NoError(err)

	_, err = s.store.Insert(s.ctx, "products", "dup", nil)

	s.Require().ErrorIs(err, rerrors.ErrRecordExists)
}

func (s *PgStoreSuite) TestGet() {
	created, err := s.store.Insert(s.ctx, "products", "p1", map[string]any{"name": "Lamp", "price": 12.5})
	s.Require().NoError(err)

	got, err := s.store.Get(s.ctx, "products", "p1")
	s.Require().NoError(err)
	assert.Equal(s.T(), 12.5, got.Fields["price"])
	assert.True(s.T(), created.CreatedAt.Equal(got.CreatedAt))

	_, err = s.store.Get(s.ctx, "products", "missing")
	s.Require().ErrorIs(err, rerrors.ErrRecordNotFound)
}

func (s *PgStoreSuite) TestReplace() {
	created, err := s.store.Insert(s.ctx, "products", "p1", map[string]any{"name": "Lamp", "sku": "L-1"})
	s.Require().NoError(err)

	replaced, err := s.store.Replace(s.ctx, "products", "p1", map[string]any{"name": "Desk Lamp"})
	s.Require().NoError(err)

	assert.Equal(s.T(), map[string]any{"name": "Desk Lamp"}, replaced.Fields, "fields are replaced, not merged")
	assert.True(s.T(), created.CreatedAt.Equal(replaced.CreatedAt))
	assert.False(s.T(), replaced.UpdatedAt.Before(created.UpdatedAt))

	_, err = s.store.Replace(s.ctx, "products", "missing", nil)
	s.Require().ErrorIs(err, rerrors.ErrRecordNotFound)
}

func (s *PgStoreSuite) TestDelete() {
	_, err := s.store.Insert(s.ctx, "products", "p1", nil)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, "products", "p1"))
	s.Require().ErrorIs(s.store.Delete(s.ctx, "products", "p1"), rerrors.ErrRecordNotFound)

	recs, err := s.store.List(s.ctx, "products")
	s.Require().NoError(err)
	assert.Empty(s.T(), recs)
}

func (s *PgStoreSuite) TestPing() {
	s.Require().NoError(s.store.Ping(s.ctx))
}
