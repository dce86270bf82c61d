package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

func TestReviewStore_SaveAndGet(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	started := time.Now()
	task := &domain.ReviewTask{
		ReviewID:  "review_doc1_a1b2c3d4",
		DocID:     "doc1",
		RuleIDs:   []string{"payment_cycle_max_30"},
		Status:    domain.ReviewRunning,
		StartedAt: &started,
	}

	require.NoError(t, store.Save(ctx, task))

	saved, err := store.Get(ctx, task.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, "doc1", saved.DocID)
	assert.Equal(t, domain.ReviewRunning, saved.Status)
	require.NotNil(t, saved.StartedAt)
	assert.True(t, started.Equal(*saved.StartedAt))
}

func TestReviewStore_Save_Upsert(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	task := &domain.ReviewTask{ReviewID: "review_doc1_deadbeef", DocID: "doc1", Status: domain.ReviewPending}
	require.NoError(t, store.Save(ctx, task))

	task.Status = domain.ReviewCompleted
	task.Results = []domain.ReviewResult{
		{RuleID: "r1", Status: domain.ResultPass, Reason: "符合要求", Confidence: 0.9},
	}
	require.NoError(t, store.Save(ctx, task))

	saved, err := store.Get(ctx, task.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewCompleted, saved.Status)
	require.Len(t, saved.Results, 1)

	// Upserting does not duplicate the creation-order entry.
	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReviewStore_Get_NotFound(t *testing.T) {
	store := NewReviewStore()

	task, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, task)
}

func TestReviewStore_List_CreationOrderAndFilter(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	tasks := []*domain.ReviewTask{
		{ReviewID: "review_doc1_00000001", DocID: "doc1", Status: domain.ReviewCompleted},
		{ReviewID: "review_doc2_00000002", DocID: "doc2", Status: domain.ReviewPending},
		{ReviewID: "review_doc3_00000003", DocID: "doc3", Status: domain.ReviewCompleted},
	}
	for _, task := range tasks {
		require.NoError(t, store.Save(ctx, task))
	}

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "review_doc1_00000001", all[0].ReviewID)
	assert.Equal(t, "review_doc2_00000002", all[1].ReviewID)
	assert.Equal(t, "review_doc3_00000003", all[2].ReviewID)

	completed, err := store.List(ctx, domain.ReviewCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, "review_doc1_00000001", completed[0].ReviewID)
	assert.Equal(t, "review_doc3_00000003", completed[1].ReviewID)

	failed, err := store.List(ctx, domain.ReviewFailed)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestReviewStore_Delete(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.ReviewTask{ReviewID: "review_doc1_deadbeef", DocID: "doc1"}))
	require.NoError(t, store.Delete(ctx, "review_doc1_deadbeef"))

	_, err := store.Get(ctx, "review_doc1_deadbeef")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Delete(ctx, "review_doc1_deadbeef")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
