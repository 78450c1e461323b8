package redisdb

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-finder/internal/config"
)

func TestNewClient_BasicConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Password = ""
	cfg.Redis.DB = 15

	client := NewClient(cfg)
	require.NotNil(t, client)
	opts := client.Options()
	assert.Equal(t, cfg.Redis.Addr, opts.Addr)
	assert.Equal(t, cfg.Redis.Password, opts.Password)
	assert.Equal(t, cfg.Redis.DB, opts.DB)
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()

	client := NewClient(cfg)
	defer client.Close()
	assert.NoError(t, Ping(context.Background(), client))

	mr.Close()
	assert.Error(t, Ping(context.Background(), client))
}
