package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everydev1618/gochat"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, Seed(context.Background(), s))
	return s
}

func TestSQLiteQueryRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row, err := s.QueryRow(ctx, "SELECT stock FROM goods WHERE name='phone'")
	require.NoError(t, err)
	assert.Equal(t, chat.Row{int64(10)}, row)

	row, err = s.QueryRow(ctx, "SELECT status, id FROM orders WHERE id='1002'")
	require.NoError(t, err)
	assert.Equal(t, chat.Row{"shipped", "1002"}, row)

	row, err = s.QueryRow(ctx, "SELECT stock FROM goods WHERE name='tablet'")
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = s.QueryRow(ctx, "SELECT NULL")
	require.NoError(t, err)
	assert.Equal(t, chat.Row{nil}, row)
}

func TestSQLiteErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.QueryRow(ctx, "SELECT * FROM missing_table")
	assert.Error(t, err)
	assert.Error(t, s.Exec(ctx, "UPDATE missing_table SET x = 1"))
}

func TestSeedIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Exec(ctx, "UPDATE goods SET stock = 0 WHERE name='laptop'"))
	require.NoError(t, Seed(ctx, s))

	row, err := s.QueryRow(ctx, "SELECT stock FROM goods WHERE name='laptop'")
	require.NoError(t, err)
	assert.Equal(t, chat.Row{int64(5)}, row)

	row, err = s.QueryRow(ctx, "SELECT COUNT(*) FROM orders")
	require.NoError(t, err)
	assert.Equal(t, chat.Row{int64(3)}, row)
}

func TestConditionalUpdateNeverOversells(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Exec(ctx, "UPDATE goods SET stock = stock - 1 WHERE name='laptop' AND stock >= 1"))
		}()
	}
	wg.Wait()

	row, err := s.QueryRow(ctx, "SELECT stock FROM goods WHERE name='laptop'")
	require.NoError(t, err)
	assert.Equal(t, chat.Row{int64(0)}, row)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.Error(t, err)
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	s, err := Open(context.Background(), "", filepath.Join(t.TempDir(), "d.db"))
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLite)
	assert.True(t, ok, fmt.Sprintf("got %T", s))
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "abc", normalizeValue([]byte("abc")))
	assert.Equal(t, int64(7), normalizeValue(int32(7)))
	assert.Equal(t, float64(1.5), normalizeValue(float32(1.5)))
	assert.Nil(t, normalizeValue(nil))
	assert.Equal(t, true, normalizeValue(true))
}
