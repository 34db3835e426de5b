package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteInMemory(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", "file:dbtest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_RejectsBadInput(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "")
	assert.EqualError(t, err, "DATABASE_URL is empty")

	_, err = Open(context.Background(), "mysql", "dsn")
	assert.EqualError(t, err, `unsupported driver "mysql"`)
}
