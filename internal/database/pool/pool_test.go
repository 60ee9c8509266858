package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 10*time.Minute, cfg.ConnMaxIdleTime)
}

func TestSetupConnectionPool(t *testing.T) {
	validCfg := func() Config {
		return Config{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		}
	}

	t.Run("applies settings", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, SetupConnectionPool(db, validCfg()))

		sqlDB, err := db.DB()
		require.NoError(t, err)
		assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
	})

	t.Run("idle equal to open is allowed", func(t *testing.T) {
		cfg := validCfg()
		cfg.MaxIdleConns = cfg.MaxOpenConns
		assert.NoError(t, SetupConnectionPool(openTestDB(t), cfg))
	})

	t.Run("zero idle is allowed", func(t *testing.T) {
		cfg := validCfg()
		cfg.MaxIdleConns = 0
		assert.NoError(t, SetupConnectionPool(openTestDB(t), cfg))
	})

	t.Run("rejects non-positive MaxOpenConns", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			cfg := validCfg()
			cfg.MaxOpenConns = n
			err := SetupConnectionPool(openTestDB(t), cfg)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "MaxOpenConns must be greater than 0")
		}
	})

	t.Run("rejects negative MaxIdleConns", func(t *testing.T) {
		cfg := validCfg()
		cfg.MaxIdleConns = -1
		err := SetupConnectionPool(openTestDB(t), cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MaxIdleConns must be non-negative")
	})

	t.Run("rejects idle greater than open", func(t *testing.T) {
		cfg := validCfg()
		cfg.MaxOpenConns = 5
		cfg.MaxIdleConns = 10
		err := SetupConnectionPool(openTestDB(t), cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MaxIdleConns (10) cannot be greater than MaxOpenConns (5)")
	})
}
