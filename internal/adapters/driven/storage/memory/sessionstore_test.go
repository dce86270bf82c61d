package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

func TestSessionStore_SaveAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	now := time.Now()
	session := &domain.ExplainSession{
		SessionID: "session_a1b2c3d4e5f6",
		ReviewID:  "review_doc1_deadbeef",
		RuleID:    "payment_cycle_max_30",
		Messages: []domain.ExplainMessage{
			{MessageID: "msg_00000001", Role: "user", Content: "为什么未通过？", Timestamp: now},
		},
		CreatedAt:   now,
		LastUpdated: now,
	}

	require.NoError(t, store.Save(ctx, session))

	saved, err := store.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.ReviewID, saved.ReviewID)
	assert.Equal(t, session.RuleID, saved.RuleID)
	require.Len(t, saved.Messages, 1)
	assert.Equal(t, "user", saved.Messages[0].Role)
}

func TestSessionStore_Save_Upsert(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	now := time.Now()
	session := &domain.ExplainSession{
		SessionID:   "session_a1b2c3d4e5f6",
		ReviewID:    "review_doc1_deadbeef",
		RuleID:      "r1",
		CreatedAt:   now,
		LastUpdated: now,
	}
	require.NoError(t, store.Save(ctx, session))

	session.Messages = append(session.Messages,
		domain.ExplainMessage{MessageID: "msg_00000001", Role: "user", Content: "问题", Timestamp: now})
	session.LastUpdated = now.Add(time.Minute)
	require.NoError(t, store.Save(ctx, session))

	saved, err := store.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Len(t, saved.Messages, 1)
	assert.True(t, session.LastUpdated.Equal(saved.LastUpdated))
}

func TestSessionStore_Get_NotFound(t *testing.T) {
	store := NewSessionStore()

	session, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, session)
}

func TestSessionStore_List_MostRecentFirst(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	base := time.Now()
	for i, sessionID := range []string{"session_000000000001", "session_000000000002", "session_000000000003"} {
		session := &domain.ExplainSession{
			SessionID:   sessionID,
			ReviewID:    "review_doc1_deadbeef",
			RuleID:      "r1",
			CreatedAt:   base,
			LastUpdated: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Save(ctx, session))
	}

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "session_000000000003", sessions[0].SessionID)
	assert.Equal(t, "session_000000000002", sessions[1].SessionID)
	assert.Equal(t, "session_000000000001", sessions[2].SessionID)
}

func TestSessionStore_List_Empty(t *testing.T) {
	store := NewSessionStore()

	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	now := time.Now()
	session := &domain.ExplainSession{
		SessionID:   "session_a1b2c3d4e5f6",
		ReviewID:    "review_doc1_deadbeef",
		RuleID:      "r1",
		CreatedAt:   now,
		LastUpdated: now,
	}
	require.NoError(t, store.Save(ctx, session))
	require.NoError(t, store.Delete(ctx, session.SessionID))

	_, err := store.Get(ctx, session.SessionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Delete(ctx, session.SessionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
