package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/archive-delivery/internal/migrations"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и
// применяет миграции из каталога migrations.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	migrationsPath, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя.
func (f *TestDataFactory) CreateUser(t *testing.T, id int64, username string, tier tiers.Tier, premiumExpiry *time.Time) {
	joinDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, username, first_name, join_date, tier, premium_expiry, daily_count, last_reset)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $4)`,
		id, username, username, joinDate, string(tier), premiumExpiry)
	require.NoError(t, err)
}

// CreateRedeemCode создает тестовый код активации.
func (f *TestDataFactory) CreateRedeemCode(t *testing.T, code string, plan tiers.Tier, days int) {
	require.NoError(t, f.storage.CreateRedeemCode(context.Background(), models.RedeemCode{
		Code:         code,
		PlanType:     plan,
		DurationDays: days,
		CreatedDate:  time.Now().UTC(),
	}))
}
