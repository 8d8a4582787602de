package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"andicblue/backend/internal/store"
)

func TestClassifyTransientCodes(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "53300", "57P03"} {
		err := classify(&pgconn.PgError{Code: code, Message: "busy"})
		require.ErrorIs(t, err, store.ErrRateLimited, code)
	}

	other := &pgconn.PgError{Code: "23505"}
	require.Equal(t, other, classify(other))
	require.NoError(t, classify(nil))

	plain := errors.New("closed")
	require.Equal(t, plain, classify(plain))
}

func TestSaveAppendLoadRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("ANDICBLUE_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set ANDICBLUE_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM ledger_rows WHERE table_name = $1`, store.TableInventory)
		_ = s.Close()
	})

	require.NoError(t, s.SaveTable(ctx, store.TableInventory, []store.Row{{"Mermelada", "3"}, {"Arandanos_125g", "7"}}))
	require.NoError(t, s.AppendRow(ctx, store.TableInventory, store.Row{"Kilo_industrial", "1"}))

	rows, err := s.LoadTable(ctx, store.TableInventory)
	require.NoError(t, err)
	require.Equal(t, []store.Row{{"Mermelada", "3"}, {"Arandanos_125g", "7"}, {"Kilo_industrial", "1"}}, rows)

	require.NoError(t, s.SaveTable(ctx, store.TableInventory, []store.Row{{"Mermelada", fmt.Sprint(2)}}))
	rows, err = s.LoadTable(ctx, store.TableInventory)
	require.NoError(t, err)
	require.Equal(t, []store.Row{{"Mermelada", "2"}}, rows)
}
