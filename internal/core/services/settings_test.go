package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/storage/memory"
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// failingConfigStore rejects writes to one key.
type failingConfigStore struct {
	driven.ConfigStore
	failKey string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.ConfigStore.Set(key, value)
}

// recordingAIValidator captures the settings it is asked to check.
type recordingAIValidator struct {
	embErr error
	llmErr error

	gotEmbedding *domain.EmbeddingSettings
	gotLLM       *domain.LLMSettings
}

func (v *recordingAIValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	v.gotEmbedding = settings
	return v.embErr
}

func (v *recordingAIValidator) ValidateLLM(settings *domain.LLMSettings) error {
	v.gotLLM = settings
	return v.llmErr
}

// --- Test helpers ---

func newSettingsFixture(t *testing.T) (*SettingsService, *storagemem.ConfigStore) {
	t.Helper()
	store := storagemem.NewConfigStore()
	return NewSettingsService(store, nil), store
}

// --- Tests ---

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	settings, err := svc.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, &defaults, settings)
}

func TestSettingsService_SaveAndGet_RoundTrip(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	want := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProviderOllama,
			Model:      "nomic-embed-text",
			BaseURL:    "http://localhost:11434",
			Dimensions: 768,
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProviderAnthropic,
			Model:    "claude-3-5-sonnet-latest",
			APIKey:   "sk-ant-test",
		},
		VectorBackend: domain.VectorBackendIVF,
		Chunk:         domain.ChunkSettings{MinSize: 40, MaxSize: 400, TargetSize: 200},
		Review:        domain.ReviewSettings{MaxQueriesPerRule: 5, MaxRetrievedChunks: 20},
		RulesDir:      "/etc/trustlens/rules",
	}

	require.NoError(t, svc.Save(want))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsService_Save_KeepsExistingAPIKeyWhenBlank(t *testing.T) {
	svc, store := newSettingsFixture(t)

	require.NoError(t, store.Set(keyLLMAPIKey, "sk-existing"))

	settings, err := svc.Get()
	require.NoError(t, err)
	settings.LLM.APIKey = ""
	require.NoError(t, svc.Save(settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-existing", got.LLM.APIKey)
}

func TestSettingsService_Save_WrapsStoreError(t *testing.T) {
	store := &failingConfigStore{ConfigStore: storagemem.NewConfigStore(), failKey: keyChunkTarget}
	svc := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	err := svc.Save(&settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save chunk target_size")
}

func TestSettingsService_Get_IgnoresUnknownStoredValues(t *testing.T) {
	svc, store := newSettingsFixture(t)

	require.NoError(t, store.Set(keyEmbedProvider, "ai9000"))
	require.NoError(t, store.Set(keyVectorBackend, "hnsw"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderDeterministic, settings.Embedding.Provider)
	assert.Equal(t, domain.VectorBackendMemory, settings.VectorBackend)
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_OpenAI(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	// Switch from Ollama so the stale base URL has to be cleared.
	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Equal(t, 3072, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_UnknownModelKeepsDimensions(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "qwen-embed-custom", ""))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "qwen-embed-custom", settings.Embedding.Model)
	assert.Equal(t, 384, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_RequiresKey(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	err := svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_SetEmbeddingProvider_RejectsLLMOnly(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	err := svc.SetEmbeddingProvider(domain.AIProviderOffline, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support embeddings")
}

func TestSettingsService_SetEmbeddingProvider_RejectsUnknown(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	err := svc.SetEmbeddingProvider(domain.AIProvider("ai9000"), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid embedding provider")
}

func TestSettingsService_SetLLMProvider_Anthropic(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant-test"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Equal(t, "sk-ant-test", settings.LLM.APIKey)
	assert.Empty(t, settings.LLM.BaseURL)
}

func TestSettingsService_SetLLMProvider_OllamaDefaultsBaseURL(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "qwen2.5", ""))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", settings.LLM.Model)
	assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
}

func TestSettingsService_SetLLMProvider_RequiresKey(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	err := svc.SetLLMProvider(domain.AIProviderOpenAI, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_SetLLMProvider_RejectsEmbeddingOnly(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	err := svc.SetLLMProvider(domain.AIProviderDeterministic, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support completions")
}

func TestSettingsService_SetVectorBackend(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.SetVectorBackend(domain.VectorBackendIVF))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.VectorBackendIVF, settings.VectorBackend)
}

func TestSettingsService_SetVectorBackend_RejectsUnknown(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	err := svc.SetVectorBackend(domain.VectorBackend("hnsw"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid vector backend")
}

func TestSettingsService_SetChunkSizes(t *testing.T) {
	tests := []struct {
		name    string
		min     int
		max     int
		target  int
		wantErr bool
	}{
		{name: "valid", min: 40, max: 400, target: 200},
		{name: "equal bounds", min: 100, max: 100, target: 100},
		{name: "zero min", min: 0, max: 300, target: 150, wantErr: true},
		{name: "negative target", min: 50, max: 300, target: -1, wantErr: true},
		{name: "min above target", min: 200, max: 400, target: 100, wantErr: true},
		{name: "target above max", min: 50, max: 100, target: 150, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSettingsFixture(t)

			err := svc.SetChunkSizes(tt.min, tt.max, tt.target)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)

			settings, err := svc.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.min, settings.Chunk.MinSize)
			assert.Equal(t, tt.max, settings.Chunk.MaxSize)
			assert.Equal(t, tt.target, settings.Chunk.TargetSize)
		})
	}
}

func TestSettingsService_SetReviewLimits(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.SetReviewLimits(5, 20))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, settings.Review.MaxQueriesPerRule)
	assert.Equal(t, 20, settings.Review.MaxRetrievedChunks)

	require.ErrorIs(t, svc.SetReviewLimits(0, 20), domain.ErrInvalidInput)
	require.ErrorIs(t, svc.SetReviewLimits(5, -1), domain.ErrInvalidInput)
}

func TestSettingsService_SetRulesDir(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.SetRulesDir("/etc/trustlens/rules"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "/etc/trustlens/rules", settings.RulesDir)

	require.NoError(t, svc.SetRulesDir(""))

	settings, err = svc.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.RulesDir)
}

func TestSettingsService_Validate_DefaultsPass(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.Validate())
}

func TestSettingsService_Validate_UnconfiguredProvider(t *testing.T) {
	svc, store := newSettingsFixture(t)

	// A cloud provider stored without its key, as if edited by hand.
	require.NoError(t, store.Set(keyLLMProvider, "openai"))

	err := svc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSettingsService_Validate_IncoherentChunkSizes(t *testing.T) {
	svc, store := newSettingsFixture(t)

	require.NoError(t, store.Set(keyChunkMin, 500))

	err := svc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk sizes")
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}

func TestSettingsService_ValidateEmbeddingConfig(t *testing.T) {
	store := storagemem.NewConfigStore()
	validator := &recordingAIValidator{embErr: errors.New("dial tcp: connection refused")}
	svc := NewSettingsService(store, validator)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	err := svc.ValidateEmbeddingConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	require.NotNil(t, validator.gotEmbedding)
	assert.Equal(t, domain.AIProviderOllama, validator.gotEmbedding.Provider)
}

func TestSettingsService_ValidateLLMConfig(t *testing.T) {
	store := storagemem.NewConfigStore()
	validator := &recordingAIValidator{}
	svc := NewSettingsService(store, validator)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "", ""))

	require.NoError(t, svc.ValidateLLMConfig())
	require.NotNil(t, validator.gotLLM)
	assert.Equal(t, "llama3.2", validator.gotLLM.Model)
}

func TestSettingsService_ValidateConfig_NoValidator(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	require.NoError(t, svc.ValidateEmbeddingConfig())
	require.NoError(t, svc.ValidateLLMConfig())
}
