//go:build integration

package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *PostgresRepositoryManager {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("readease_test"),
		postgres.WithUsername("readease"),
		postgres.WithPassword("readease"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)

	m := NewPostgresRepositoryManager(db)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.RunMigrations(ctx))
	return m
}

func TestPostgres_EndToEnd(t *testing.T) {
	m := startPostgres(t)
	ctx := context.Background()

	role, err := m.Roles().FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "USER", role.Name)

	_, err = m.Roles().FindByID(ctx, 99)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	u, err := m.Users().Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h", RoleID: role.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	n, err := m.Users().CountByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, m.Users().UpdateLastAccessByEmail(ctx, "a@x.com", time.Now(), 42))
	got, err := m.Users().GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.TotalReadingSeconds)
	assert.Nil(t, got.LastReadingDocumentID)

	lib, err := m.Users().GetLibrary(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, lib.Documents)

	tr := m.Tokens()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, tr.Save(ctx, &models.Token{Token: "acc", UserID: u.ID, Kind: models.TokenKindAccess, ExpiresAt: exp}))
	require.NoError(t, tr.Save(ctx, &models.Token{Token: "ref", UserID: u.ID, Kind: models.TokenKindRefresh, ExpiresAt: exp}))

	tok, err := tr.FindByUserAndKind(ctx, u.ID, models.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, "acc", tok.Token)

	require.NoError(t, tr.DeleteByUser(ctx, u.ID))
	_, err = tr.FindByToken(ctx, "ref")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
