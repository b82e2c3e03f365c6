// Package e2e runs the storefront against a real record store.
// A PostgreSQL container backs the record store, whose gRPC server listens on a
// loopback port. The storefront dials it with the production client stack and is
// served by an httptest.Server, so every request crosses HTTP, gRPC and SQL.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	rsapp "github.com/abgdnv/storefront/internal/recordstore/app"
	"github.com/abgdnv/storefront/internal/recordstore/store"
	sfapp "github.com/abgdnv/storefront/internal/storefront/app"
	sfconfig "github.com/abgdnv/storefront/internal/storefront/config"
	"github.com/abgdnv/storefront/internal/storefront/present"
	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/grpc"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "STOREFRONT_SKIP_E2E_TESTS"

type StorefrontE2ESuite struct {
	suite.Suite
	ctx         context.Context
	logger      *slog.Logger
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	grpcServer  *grpc.Server
	recordStore *httptest.Server
	storefront  *httptest.Server
	sfDeps      *sfapp.Dependencies
	closeClient func() error
}

func TestStorefrontE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(StorefrontE2ESuite))
}

func (s *StorefrontE2ESuite) SetupSuite() {
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
	require.NoError(s.T(), err)
	require.NoError(s.T(), store.Migrate(connStr), "Failed to apply migrations")
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")

	// record store: gRPC for the storefront, REST for direct checks
	rsDeps := rsapp.SetupDependencies(store.NewPgStore(s.dbPool), messaging.NoopPublisher{}, s.logger)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(s.T(), err)
	s.grpcServer = rsapp.SetupGrpcServer(rsDeps, false, nil)
	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			s.logger.Error("record store gRPC server stopped", "error", err)
		}
	}()
	s.recordStore = httptest.NewServer(rsapp.SetupHttpHandler(rsDeps))

	// storefront over the gRPC backend
	cfg := &sfconfig.Config{
		Store: sfconfig.StoreConfig{
			Backend: sfconfig.BackendGRPC,
			Grpc:    config.GrpcClientConfig{Addr: lis.Addr().String(), Timeout: 5 * time.Second},
			Resilience: config.ResilienceConfig{
				Retry: config.RetryConfig{MaxAttempts: 3, InitialBackoff: 50 * time.Millisecond},
				CircuitBreaker: config.CircuitBreakerConfig{
					ConsecutiveFailures: 5,
					ErrorRatePercent:    50,
					OpenTimeout:         time.Second,
				},
			},
		},
		Display: sfconfig.DisplayConfig{FallbackImageURL: "https://img/fallback.png", CurrencySymbol: "₹"},
		About:   sfconfig.AboutConfig{Name: "E2E Store"},
	}
	client, closeClient, err := sfapp.NewRecordsClient(cfg.Store)
	require.NoError(s.T(), err)
	s.closeClient = closeClient
	s.sfDeps = sfapp.SetupDependencies(client, cfg, s.logger)
	s.storefront = httptest.NewServer(sfapp.SetupHttpHandler(s.sfDeps))
}

func (s *StorefrontE2ESuite) TearDownSuite() {
	if s.storefront != nil {
		s.storefront.Close()
	}
	if s.closeClient != nil {
		_ = s.closeClient()
	}
	if s.recordStore != nil {
		s.recordStore.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate E2E PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the store and reloads the shared catalog.
func (s *StorefrontE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE records RESTART IDENTITY")
	require.NoError(s.T(), err, "Failed to truncate records table")
	require.NoError(s.T(), s.sfDeps.Catalog.Load(s.ctx))
}

type catalogResponse struct {
	State string                `json:"state"`
	Total int                   `json:"total"`
	Items []present.ProductView `json:"items"`
}

func (s *StorefrontE2ESuite) TestProductLifecycle() {
	// empty store
	var cat catalogResponse
	s.doJSON(http.MethodGet, s.storefront.URL+"/api/v1/catalog", nil, http.StatusOK, &cat)
	s.Equal("EmptyNoData", cat.State)

	// create
	var created present.ProductView
	s.doJSON(http.MethodPost, s.storefront.URL+"/api/v1/manage/products",
		map[string]any{"name": "Desk Lamp", "price": 499, "sku": "LMP-1"}, http.StatusCreated, &created)
	s.NotEmpty(created.ID)
	s.Equal("₹499", created.PriceLabel)
	s.Equal("https://img/fallback.png", created.ImageURL)

	s.doJSON(http.MethodPost, s.storefront.URL+"/api/v1/manage/products",
		map[string]any{"name": "Mug", "description": "Stoneware"}, http.StatusCreated, nil)

	// the mutation reloaded the shared catalog
	s.doJSON(http.MethodGet, s.storefront.URL+"/api/v1/catalog", nil, http.StatusOK, &cat)
	s.Equal("Populated", cat.State)
	s.Equal(2, cat.Total)
	s.Require().Len(cat.Items, 2)
	s.Equal("Desk Lamp", cat.Items[0].Name, "catalog keeps store order")

	s.doJSON(http.MethodGet, s.storefront.URL+"/api/v1/catalog?q=stone", nil, http.StatusOK, &cat)
	s.Require().Len(cat.Items, 1)
	s.Equal("Mug", cat.Items[0].Name)

	// patch keeps unspecified fields
	var updated present.ProductView
	s.doJSON(http.MethodPatch, s.storefront.URL+"/api/v1/manage/products/"+created.ID,
		map[string]any{"description": "Warm light"}, http.StatusOK, &updated)
	s.Equal("Desk Lamp", updated.Name)
	s.Equal("Warm light", updated.Description)
	s.Equal("LMP-1", updated.SKU)

	// put replaces the whole product, dropping the sku
	s.doJSON(http.MethodPut, s.storefront.URL+"/api/v1/manage/products/"+created.ID,
		map[string]any{"name": "Desk Lamp", "price": 499, "description": "Warm light"}, http.StatusOK, &updated)
	s.Empty(updated.SKU)

	// the record store holds the replaced fields
	var record struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	}
	s.doJSON(http.MethodGet, s.recordStore.URL+"/api/v1/collections/products/records/"+created.ID, nil, http.StatusOK, &record)
	s.Equal("Warm light", record.Fields["description"])
	s.EqualValues(499, record.Fields["price"])
	s.NotContains(record.Fields, "sku")

	// detail
	var found struct {
		State   string               `json:"state"`
		Product *present.ProductView `json:"product"`
	}
	s.doJSON(http.MethodGet, s.storefront.URL+"/api/v1/products/"+created.ID, nil, http.StatusOK, &found)
	s.Equal("Found", found.State)
	s.Require().NotNil(found.Product)
	s.Equal("₹499.00", found.Product.PriceLabel)

	// delete needs confirmation
	s.doJSON(http.MethodDelete, s.storefront.URL+"/api/v1/manage/products/"+created.ID, nil, http.StatusPreconditionRequired, nil)
	s.doJSON(http.MethodDelete, s.storefront.URL+"/api/v1/manage/products/"+created.ID+"?confirm=true", nil, http.StatusNoContent, nil)
	s.doJSON(http.MethodGet, s.storefront.URL+"/api/v1/products/"+created.ID, nil, http.StatusNotFound, &found)
	s.Equal("NotFound", found.State)

	s.doJSON(http.MethodGet, s.storefront.URL+"/api/v1/catalog", nil, http.StatusOK, &cat)
	s.Equal(1, cat.Total)
}

func (s *StorefrontE2ESuite) TestErrors() {
	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{name: "blank name", method: http.MethodPost, path: "/api/v1/manage/products", body: map[string]any{"name": " "}, code: http.StatusBadRequest},
		{name: "update missing", method: http.MethodPut, path: "/api/v1/manage/products/nope", body: map[string]any{"name": "X"}, code: http.StatusNotFound},
		{name: "delete missing", method: http.MethodDelete, path: "/api/v1/manage/products/nope?confirm=true", code: http.StatusNotFound},
		{name: "detail missing", method: http.MethodGet, path: "/api/v1/products/nope", code: http.StatusNotFound},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.doJSON(tc.method, s.storefront.URL+tc.path, tc.body, tc.code, nil)
		})
	}
}

func (s *StorefrontE2ESuite) TestReadiness() {
	s.doJSON(http.MethodGet, s.storefront.URL+"/readyz", nil, http.StatusOK, nil)
	s.doJSON(http.MethodGet, s.recordStore.URL+"/readyz", nil, http.StatusOK, nil)
}

// doJSON sends payload as JSON, checks the status code and decodes the body into out when set.
func (s *StorefrontE2ESuite) doJSON(method, url string, payload any, wantStatus int, out any) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewBuffer(payloadBytes)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, url, body)
	s.Require().NoError(err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err, "HTTP request failed")
	defer func() { _ = resp.Body.Close() }()
	bodyBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.Require().Equal(wantStatus, resp.StatusCode, "%s %s: %s", method, url, bodyBytes)
	if out != nil {
		s.Require().NoError(json.Unmarshal(bodyBytes, out))
	}
}
