package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitStampsMissingTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	before := time.Now().UTC()
	err := publisher.Emit(context.Background(), Event{
		Action:   ActionSchoolCreated,
		SchoolID: 1,
	})
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
}

func TestEmitKeepsExplicitTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	instant := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	err := publisher.Emit(context.Background(), Event{
		Action:    ActionSchoolDeleted,
		SchoolID:  3,
		Timestamp: instant,
	})
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, instant, events[0].Timestamp)
	assert.Equal(t, ActionSchoolDeleted, events[0].Action)
}

func TestInMemoryStoreReturnsCopies(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	require.NoError(t, publisher.Emit(context.Background(), Event{Action: ActionSchoolCreated, SchoolID: 1}))

	events := store.Events()
	events[0].SchoolID = 99

	assert.Equal(t, int64(1), store.Events()[0].SchoolID)
}
