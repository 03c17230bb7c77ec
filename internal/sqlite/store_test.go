package sqlite_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/daybook-app/daybook/internal/daybook"
	"github.com/daybook-app/daybook/internal/migrations"
	store "github.com/daybook-app/daybook/internal/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dbx, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	require.NoError(t, migrations.Run(dbx))

	return store.New(dbx)
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), daybook.KeyDailyTasks)
	assert.ErrorIs(t, err, daybook.ErrNotFound)
}

func TestSetThenGet(t *testing.T) {
	var (
		ctx = context.Background()
		s   = newTestStore(t)
	)

	require.NoError(t, s.Set(ctx, daybook.KeyDailyTasks, `[]`))

	got, err := s.Get(ctx, daybook.KeyDailyTasks)
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)
}

func TestSetOverwrites(t *testing.T) {
	var (
		ctx = context.Background()
		s   = newTestStore(t)
	)

	require.NoError(t, s.Set(ctx, daybook.KeyActiveTemplateID, "1"))
	require.NoError(t, s.Set(ctx, daybook.KeyActiveTemplateID, "2"))

	got, err := s.Get(ctx, daybook.KeyActiveTemplateID)
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestListWithPrefix(t *testing.T) {
	var (
		ctx = context.Background()
		s   = newTestStore(t)
	)

	require.NoError(t, s.Set(ctx, "dailyTasks", `[]`))
	require.NoError(t, s.Set(ctx, "dailyTasksid", "3"))
	require.NoError(t, s.Set(ctx, "rssFeeds", `[]`))

	entries, err := s.List(ctx, "daily")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "dailyTasks", entries[0].Key)
	assert.Equal(t, "dailyTasksid", entries[1].Key)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
