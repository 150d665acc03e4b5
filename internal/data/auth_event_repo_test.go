package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bookloop/bookloop-ui-api/internal/errors"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
	"github.com/bookloop/bookloop-ui-api/internal/testutil"
)

func TestAuthEventRepo_Record_RequiresKind(t *testing.T) {
	// Validation happens before any query, so no database is needed.
	repo := NewAuthEventRepo(nil)

	err := repo.Record(context.Background(), ports.AuthEvent{
		IdentityID: "identity-1",
		Kind:       "   ",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind is required")
}

func TestAuthEventRepo_RecordAndListRecent(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewAuthEventRepoWithTimeProvider(db, tp)
		ctx := context.Background()

		events := []ports.AuthEvent{
			{IdentityID: "reader-1", Email: "reader@example.com", Kind: "login"},
			{IdentityID: "reader-1", Email: "reader@example.com", Kind: "session_refreshed"},
			{IdentityID: "librarian-1", Email: "librarian@example.com", Kind: "login", Detail: "federated"},
			{IdentityID: "reader-1", Email: "reader@example.com", Kind: "logout"},
		}
		for _, ev := range events {
			require.NoError(t, repo.Record(ctx, ev))
			tp.AddTime(time.Minute)
		}

		t.Run("lists newest first", func(t *testing.T) {
			got, err := repo.ListRecent(ctx, AuthEventListOptions{})
			require.NoError(t, err)
			require.Len(t, got, 4)
			assert.Equal(t, "logout", got[0].Kind)
			assert.Equal(t, "login", got[3].Kind)
			assert.NotEmpty(t, got[0].ID)
			assert.False(t, got[0].CreatedAt.IsZero())
		})

		t.Run("filters by identity", func(t *testing.T) {
			got, err := repo.ListRecent(ctx, AuthEventListOptions{IdentityID: "librarian-1"})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "librarian@example.com", got[0].Email)
			assert.Equal(t, "federated", got[0].Detail)
		})

		t.Run("filters by kind", func(t *testing.T) {
			got, err := repo.ListRecent(ctx, AuthEventListOptions{Kind: "login"})
			require.NoError(t, err)
			require.Len(t, got, 2)
		})

		t.Run("combines filters with limit", func(t *testing.T) {
			got, err := repo.ListRecent(ctx, AuthEventListOptions{
				IdentityID: "reader-1",
				Kind:       "login",
				Limit:      1,
			})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "reader-1", got[0].IdentityID)
		})

		t.Run("no matches returns empty", func(t *testing.T) {
			got, err := repo.ListRecent(ctx, AuthEventListOptions{IdentityID: "missing"})
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	})
}

func TestAuthEventRepo_ListRecent_LimitDefaults(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewAuthEventRepo(db)
		ctx := context.Background()

		for i := 0; i < 105; i++ {
			require.NoError(t, repo.Record(ctx, ports.AuthEvent{
				IdentityID: "bulk-identity",
				Kind:       "login",
			}))
		}

		got, err := repo.ListRecent(ctx, AuthEventListOptions{IdentityID: "bulk-identity"})
		require.NoError(t, err)
		assert.Len(t, got, 100, "zero limit falls back to the default page size")

		got, err = repo.ListRecent(ctx, AuthEventListOptions{IdentityID: "bulk-identity", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 10)
	})
}

func TestAuthEventRepo_PurgeOlderThan(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()

		old := NewAuthEventRepoWithTimeProvider(db, NewFixedTimeProvider(time.Now().AddDate(0, 0, -30)))
		recent := NewAuthEventRepo(db)

		require.NoError(t, old.Record(ctx, ports.AuthEvent{IdentityID: "stale-1", Kind: "login"}))
		require.NoError(t, old.Record(ctx, ports.AuthEvent{IdentityID: "stale-2", Kind: "logout"}))
		require.NoError(t, recent.Record(ctx, ports.AuthEvent{IdentityID: "fresh-1", Kind: "login"}))

		removed, err := recent.PurgeOlderThan(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		remaining, err := recent.ListRecent(ctx, AuthEventListOptions{})
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "fresh-1", remaining[0].IdentityID)
	})
}

func TestAuthEventRepo_PurgeOlderThan_RejectsNonPositiveDays(t *testing.T) {
	repo := NewAuthEventRepo(nil)

	_, err := repo.PurgeOlderThan(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention days must be positive")
}

func TestAuthEventRepo_Record_CanceledContext(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewAuthEventRepo(db)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := repo.Record(ctx, ports.AuthEvent{IdentityID: "identity-1", Kind: "login"})
		require.Error(t, err)
		assert.Contains(t,
			[]apperrors.ErrorCode{apperrors.ErrCodeCanceled, apperrors.ErrCodeInternal},
			apperrors.GetCode(err))
	})
}
