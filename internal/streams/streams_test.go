package streams

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

func TestPublishJSON_ReadGroup_Ack(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, EnsureGroup(ctx, client, "test:stream", "test-group"))

	payload := map[string]string{"hello": "world"}
	id, err := PublishJSON(ctx, client, "test:stream", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	messages, err := ReadGroup(ctx, client, "test:stream", "test-group", "consumer-1", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, id, messages[0].ID)

	data, ok := messages[0].Values["data"].(string)
	require.True(t, ok)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, "world", decoded["hello"])

	require.NoError(t, Ack(ctx, client, "test:stream", "test-group", id))

	// 确认后再读没有新消息
	messages, err = ReadGroup(ctx, client, "test:stream", "test-group", "consumer-1", 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestEnsureGroup_Idempotent(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, EnsureGroup(ctx, client, "test:stream", "test-group"))
	// 组已存在视为成功
	require.NoError(t, EnsureGroup(ctx, client, "test:stream", "test-group"))
}
