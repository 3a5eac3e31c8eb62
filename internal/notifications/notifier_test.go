package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"orgdesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishUser_NilRedis(t *testing.T) {
	// Notifier with nil Redis should return nil error (fail-open/noop)
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), 1, "test payload")
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestApprovalChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "approvals:feed:DOCUMENT", ApprovalChannel(models.EntityTypeDocument))
	assert.Equal(t, "approvals:feed:FINANCE", ApprovalChannel(models.EntityTypeFinance))
}

func TestNotifier_PublishApprovalReviewed_ReachesBothChannels(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userPayloads := make(chan string, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		userPayloads <- payload
	}))

	feedPayloads := make(chan string, 1)
	require.NoError(t, n.StartApprovalSubscriber(ctx, func(_ string, payload string) {
		feedPayloads <- payload
	}))

	event := ApprovalEvent{
		ApprovalID: 3,
		EntityType: models.EntityTypeLetter,
		Action:     "approve",
		Status:     models.ApprovalStatusApproved,
		ReviewerID: 9,
	}
	require.NoError(t, n.PublishApprovalReviewed(context.Background(), 5, event))

	for _, ch := range []chan string{userPayloads, feedPayloads} {
		select {
		case payload := <-ch:
			var got ApprovalEvent
			require.NoError(t, json.Unmarshal([]byte(payload), &got))
			assert.Equal(t, uint(3), got.ApprovalID)
			assert.Equal(t, models.ApprovalStatusApproved, got.Status)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for approval event")
		}
	}
}

func TestNotifier_StartApprovalSubscriber_StopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	require.NoError(t, n.StartApprovalSubscriber(ctx, func(_ string, _ string) {
		atomic.AddInt32(&received, 1)
	}))

	event := ApprovalEvent{ApprovalID: 1, EntityType: models.EntityTypeEvent, Status: models.ApprovalStatusRejected}
	require.NoError(t, n.PublishApprovalReviewed(context.Background(), 2, event))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	before := atomic.LoadInt32(&received)

	require.NoError(t, n.PublishApprovalReviewed(context.Background(), 2, event))
	assert.Never(t, func() bool {
		return atomic.LoadInt32(&received) > before
	}, 200*time.Millisecond, 10*time.Millisecond)
}
