package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Load triggers lazy init
	_, err = store.Load(driven.PromptReview)
	require.NoError(t, err)

	files := []string{
		"review.txt",
		"review_system.txt",
		"README.md",
	}
	for _, f := range files {
		path := filepath.Join(dir, f)
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptReview)

	require.NoError(t, err)
	// All assembler slots are present
	for _, slot := range []string{
		"{rule_id}", "{rule_name}", "{category}", "{rule_type}",
		"{risk_level}", "{intent}", "{params_formatted}", "{chunks_formatted}",
	} {
		assert.Contains(t, prompt, slot)
	}
	assert.Contains(t, prompt, "PASS")
	assert.Contains(t, prompt, "RISK")
	assert.Contains(t, prompt, "MISSING")
}

func TestPromptStore_Load_SystemPrompt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptReviewSystem)

	require.NoError(t, err)
	assert.Equal(t, "你是一位专业的合同审核专家。", prompt)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()

	// Create custom prompt before store init
	customContent := "规则 {rule_id}：{intent}\n{chunks_formatted}"
	err := os.WriteFile(
		filepath.Join(dir, "review.txt"),
		[]byte(customContent),
		0600,
	)
	require.NoError(t, err)

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptReview)

	require.NoError(t, err)
	assert.Equal(t, customContent, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Delete the file after init creates it
	_, _ = store.Load(driven.PromptReview) // Trigger init
	os.Remove(filepath.Join(dir, "review.txt"))
	store.Reload() // Clear cache

	// Should fall back to embedded default
	prompt, err := store.Load(driven.PromptReview)

	require.NoError(t, err)
	assert.Contains(t, prompt, "{rule_id}")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")
	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Prime the cache
	first, err := store.Load(driven.PromptReview)
	require.NoError(t, err)

	// Edit the file on disk
	edited := "edited {rule_id}"
	err = os.WriteFile(filepath.Join(dir, "review.txt"), []byte(edited), 0600)
	require.NoError(t, err)

	// Cached value still served until Reload
	cached, err := store.Load(driven.PromptReview)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()

	fresh, err := store.Load(driven.PromptReview)
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)
}
