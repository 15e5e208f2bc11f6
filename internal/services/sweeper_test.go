package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Islomov1/eit-lc-crm/internal/models"
	"github.com/Islomov1/eit-lc-crm/internal/telegram"
)

func seedFailedDelivery(store *fakeDeliveryStore, chatID string, attempts int, nextRetryAt *time.Time) uint {
	store.nextID++
	id := store.nextID
	store.records[id] = &models.TelegramDelivery{
		ID:             id,
		StudentID:      7,
		ParentID:       id,
		IdempotencyKey: "key-" + chatID,
		ChatID:         chatID,
		MessageText:    "pending report",
		Status:         models.DeliveryFailed,
		AttemptCount:   attempts,
		NextRetryAt:    nextRetryAt,
		Error:          "Internal Server Error",
	}
	return id
}

func TestSweepRetriesDueRecords(t *testing.T) {
	store := newFakeDeliveryStore()
	now := time.Now()
	past := now.Add(-time.Minute)

	sent := seedFailedDelivery(store, "111", 1, &past)
	stillFailing := seedFailedDelivery(store, "222", 1, &past)

	sender := &fakeSender{results: map[string]telegram.SendResult{
		"222": {OK: false, Error: "Bad Gateway", HTTPStatus: 502},
	}}
	sweeper := NewRetrySweeper(store, sender)

	summary, err := sweeper.Sweep(now, 50, false, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)

	assert.Equal(t, models.DeliverySent, store.records[sent].Status)
	assert.Equal(t, models.DeliveryFailed, store.records[stillFailing].Status)
	require.NotNil(t, store.records[stillFailing].NextRetryAt)
	assert.True(t, store.records[stillFailing].NextRetryAt.After(now))
}

func TestSweepTimestampsFollowTheSweepClock(t *testing.T) {
	store := newFakeDeliveryStore()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	sent := seedFailedDelivery(store, "111", 1, &past)
	stillFailing := seedFailedDelivery(store, "222", 1, &past)

	sender := &fakeSender{results: map[string]telegram.SendResult{
		"222": {OK: false, Error: "Bad Gateway", HTTPStatus: 502},
	}}
	sweeper := NewRetrySweeper(store, sender)

	_, err := sweeper.Sweep(now, 50, false, 10)
	require.NoError(t, err)

	require.NotNil(t, store.records[sent].SentAt)
	assert.Equal(t, now, *store.records[sent].SentAt)

	// second attempt: 60s backoff plus at most 5s jitter from the same clock
	retryAt := store.records[stillFailing].NextRetryAt
	require.NotNil(t, retryAt)
	assert.False(t, retryAt.Before(now.Add(60*time.Second)))
	assert.False(t, retryAt.After(now.Add(65*time.Second)))
}

func TestSweepSkipsNotYetDue(t *testing.T) {
	store := newFakeDeliveryStore()
	now := time.Now()
	future := now.Add(time.Hour)

	seedFailedDelivery(store, "111", 1, &future)

	sweeper := NewRetrySweeper(store, &fakeSender{})
	summary, err := sweeper.Sweep(now, 50, false, 10)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Fetched)
	assert.Equal(t, 0, summary.Processed)
}

func TestSweepHonorsLimit(t *testing.T) {
	store := newFakeDeliveryStore()
	now := time.Now()
	past := now.Add(-time.Minute)

	seedFailedDelivery(store, "111", 1, &past)
	seedFailedDelivery(store, "222", 1, &past)
	seedFailedDelivery(store, "333", 1, &past)

	sender := &fakeSender{}
	sweeper := NewRetrySweeper(store, sender)

	summary, err := sweeper.Sweep(now, 1, false, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, sender.calls, 1)
}

// lostClaimStore simulates a concurrent sweeper winning every claim race.
type lostClaimStore struct {
	*fakeDeliveryStore
}

func (s *lostClaimStore) ClaimDueForAttempt(id uint, now time.Time, maxAttempts int) (bool, error) {
	return false, nil
}

func TestSweepCountsLostClaimsAsSkipped(t *testing.T) {
	inner := newFakeDeliveryStore()
	now := time.Now()
	past := now.Add(-time.Minute)
	seedFailedDelivery(inner, "111", 1, &past)

	sender := &fakeSender{}
	sweeper := NewRetrySweeper(&lostClaimStore{inner}, sender)

	summary, err := sweeper.Sweep(now, 50, false, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, sender.calls)
}

func TestSweepExhaustedAttemptGetsNoSchedule(t *testing.T) {
	store := newFakeDeliveryStore()
	now := time.Now()
	past := now.Add(-time.Minute)

	id := seedFailedDelivery(store, "111", 9, &past)

	sender := &fakeSender{results: map[string]telegram.SendResult{
		"111": {OK: false, Error: "Bad Gateway", HTTPStatus: 502},
	}}
	sweeper := NewRetrySweeper(store, sender)

	summary, err := sweeper.Sweep(now, 50, false, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	// attempt 10 of 10 failed: the record stays FAILED with no next retry
	assert.Equal(t, models.DeliveryFailed, store.records[id].Status)
	assert.Nil(t, store.records[id].NextRetryAt)
	assert.Equal(t, 10, store.records[id].AttemptCount)
}

func TestSweepIncludesPendingWhenAsked(t *testing.T) {
	store := newFakeDeliveryStore()
	now := time.Now()

	// a PENDING record stranded by a crash between claim and send
	store.nextID++
	store.records[store.nextID] = &models.TelegramDelivery{
		ID:             store.nextID,
		ParentID:       1,
		IdempotencyKey: "stranded",
		ChatID:         "111",
		MessageText:    "stranded report",
		Status:         models.DeliveryPending,
	}

	sweeper := NewRetrySweeper(store, &fakeSender{})

	summary, err := sweeper.Sweep(now, 50, false, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Fetched)

	summary, err = sweeper.Sweep(now, 50, true, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
}
