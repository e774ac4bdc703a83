package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultBackupTimeout, cfg.BackupTimeout)

	cfg = Config{Host: "cache", Port: 6380}.withDefaults()
	assert.Equal(t, "cache", cfg.Host)
	assert.Equal(t, 6380, cfg.Port)
}

func TestUnconnectedDriver(t *testing.T) {
	ctx := context.Background()
	drv := NewDriver("kv", Config{}, nil)

	assert.Equal(t, database.KindRedis, drv.Kind())
	assert.False(t, drv.IsConnected(ctx))
	assert.Nil(t, drv.PoolStats())
	assert.NoError(t, drv.Disconnect(ctx))

	_, err := drv.Get(ctx, "k")
	assert.ErrorIs(t, err, database.ErrNotConnected)
	_, err = drv.Scan(ctx, "*")
	assert.ErrorIs(t, err, database.ErrNotConnected)

	results, err := drv.Pipeline(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, results)

	deleted, err := drv.Delete(ctx)
	assert.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestConnectFailure(t *testing.T) {
	port, err := getFreePort()
	assert.NoError(t, err)

	drv := NewDriver("kv", Config{Host: "127.0.0.1", Port: port, MaxRetries: -1}, nil)
	assert.Error(t, drv.Connect(context.Background()))
	assert.False(t, drv.IsConnected(context.Background()))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("k", nil))
	assert.ErrorIs(t, translate("k", redis.Nil), database.ErrRecordNotFound)
	assert.ErrorIs(t, translate("k", redis.ErrClosed), database.ErrNotConnected)

	other := errors.New("boom")
	assert.Equal(t, other, translate("k", other))
}
