package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a miniredis instance and returns a connected RedisClient.
func setupTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}

func TestNewRedisClient(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedisClient(RedisOptions{
			URL: fmt.Sprintf("redis://%s", mr.Addr()),
		})
		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()
	})

	t.Run("connection failure", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisClient(RedisOptions{
			URL:            "redis://" + addr,
			ConnectTimeout: 200 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisClient(RedisOptions{
			URL: "invalid://url",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}

func TestPushPopRequest(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	first := validRequest()
	second := validRequest()
	second.ID = "req-2"

	require.NoError(t, client.PushRequest(ctx, "ffplan:requests", first))
	require.NoError(t, client.PushRequest(ctx, "ffplan:requests", second))

	length, err := mr.List("ffplan:requests")
	require.NoError(t, err)
	assert.Len(t, length, 2)

	got, err := client.PopRequest(ctx, "ffplan:requests", time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "req-1", got.ID, "requests are served first in, first out")
	assert.Equal(t, first.Observations, got.Observations)

	got, err = client.PopRequest(ctx, "ffplan:requests", time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "req-2", got.ID)
}

func TestPopRequest_Timeout(t *testing.T) {
	client, _ := setupTestClient(t)

	got, err := client.PopRequest(context.Background(), "empty", 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPopRequest_Cancelled(t *testing.T) {
	client, _ := setupTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.PopRequest(ctx, "empty", 0)
	require.Error(t, err)
}

func TestPopRequest_BadPayload(t *testing.T) {
	client, mr := setupTestClient(t)

	_, err := mr.Lpush("ffplan:requests", "not json")
	require.NoError(t, err)

	_, err = client.PopRequest(context.Background(), "ffplan:requests", time.Second)
	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "not json", de.Payload)
}

func TestPublishSubscribe(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies, err := client.Subscribe(ctx, "req-1")
	require.NoError(t, err)

	reply := PlanReply{
		ID:          "req-1",
		Outcome:     "plan",
		Actions:     []string{"PICKUP C1", "STACK C1 C2"},
		WorkerID:    "worker-1",
		StartedAt:   1000,
		CompletedAt: 1200,
	}
	require.NoError(t, client.PublishReply(ctx, PlanReply{ID: "other", Outcome: "plan"}))
	require.NoError(t, client.PublishReply(ctx, reply))

	select {
	case got := <-replies:
		assert.Equal(t, reply, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply received")
	}

	cancel()
	select {
	case _, ok := <-replies:
		for ok {
			_, ok = <-replies
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reply channel not closed after cancel")
	}
}

func TestHeartbeat(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	alive, err := client.Alive(ctx, "worker-1")
	require.NoError(t, err)
	assert.False(t, alive)

	require.NoError(t, client.Heartbeat(ctx, "worker-1"))
	assert.Equal(t, HeartbeatTTL, mr.TTL("ffplan:worker:worker-1:health"))

	alive, err = client.Alive(ctx, "worker-1")
	require.NoError(t, err)
	assert.True(t, alive)

	mr.FastForward(HeartbeatTTL + time.Second)
	alive, err = client.Alive(ctx, "worker-1")
	require.NoError(t, err)
	assert.False(t, alive)
}

func TestWorkerCount(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	count, err := client.GetWorkerCount(ctx, "ffplan:requests")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, client.IncrementWorkerCount(ctx, "ffplan:requests"))
	require.NoError(t, client.IncrementWorkerCount(ctx, "ffplan:requests"))
	require.NoError(t, client.DecrementWorkerCount(ctx, "ffplan:requests"))

	count, err = client.GetWorkerCount(ctx, "ffplan:requests")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClose(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisOptions{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.Error(t, client.PushRequest(context.Background(), "q", validRequest()))
}
