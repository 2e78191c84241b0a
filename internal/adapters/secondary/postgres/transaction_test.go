package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_WithSnapshot(t *testing.T) {
	tm := NewTransactionManager(testPool)

	t.Run("tx is visible through the context", func(t *testing.T) {
		err := tm.WithSnapshot(context.Background(), func(ctx context.Context) error {
			_, ok := TxFromContext(ctx)
			assert.True(t, ok)

			var readOnly string
			require.NoError(t, GetDBTX(ctx, testPool).QueryRow(ctx, "SHOW transaction_read_only").Scan(&readOnly))
			assert.Equal(t, "on", readOnly)

			var isolation string
			require.NoError(t, GetDBTX(ctx, testPool).QueryRow(ctx, "SHOW transaction_isolation").Scan(&isolation))
			assert.Equal(t, "repeatable read", isolation)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("writes are rejected", func(t *testing.T) {
		err := tm.WithSnapshot(context.Background(), func(ctx context.Context) error {
			_, err := GetDBTX(ctx, testPool).Exec(ctx, "INSERT INTO roles (name) VALUES ('intruder')")
			return err
		})
		require.Error(t, err)
	})

	t.Run("fn error is returned", func(t *testing.T) {
		boom := errors.New("boom")
		err := tm.WithSnapshot(context.Background(), func(ctx context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("pool outside a transaction", func(t *testing.T) {
		_, ok := TxFromContext(context.Background())
		assert.False(t, ok)
		assert.Equal(t, DBTX(testPool), GetDBTX(context.Background(), testPool))
	})
}
