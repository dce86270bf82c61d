package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/ai"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/config/file"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/embedding/deterministic"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/llm/offline"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/parser/pagefile"
	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/rules/rulefile"
	storagemem "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/storage/memory"
	vectormem "github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/vector/memory"
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/services"
)

// setupTestServices wires the command tree to real services over memory
// adapters and seeds one document, two rules, a finished review and an
// empty explain session. The returned cleanup restores whatever services
// were installed before.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	oldIngest := ingestService
	oldReview := reviewService
	oldSearch := searchService
	oldRules := rulesService
	oldSettings := settingsService
	oldExplain := explainService

	docStore := storagemem.NewDocumentStore()
	ruleStore := storagemem.NewRuleStore()
	tasks := storagemem.NewReviewStore()
	sessions := storagemem.NewSessionStore()
	pipeline := services.NewEmbeddingPipeline(deterministic.NewEmbeddingService(64), vectormem.New())

	prompts, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)
	validator, err := ai.NewOutputValidator()
	require.NoError(t, err)

	SetServices(Services{
		Ingest: services.NewIngestService(pagefile.New(), docStore, pipeline, nil),
		Review: services.NewReviewService(
			docStore, ruleStore, tasks, nil, pipeline, prompts,
			offline.NewLLMService(), validator,
		),
		Search:   services.NewSearchService(pipeline),
		Rules:    services.NewRulesService(ruleStore, rulefile.New()),
		Settings: services.NewSettingsService(storagemem.NewConfigStore(), nil),
		Explain:  services.NewExplainService(sessions, tasks, ruleStore),
	})

	seedFixtures(t, docStore, ruleStore, tasks, sessions, pipeline)

	return func() {
		ingestService = oldIngest
		reviewService = oldReview
		searchService = oldSearch
		rulesService = oldRules
		settingsService = oldSettings
		explainService = oldExplain
	}
}

// clearServices empties every service so nil-guard paths can be tested.
// The returned cleanup restores the previous services.
func clearServices() func() {
	oldIngest := ingestService
	oldReview := reviewService
	oldSearch := searchService
	oldRules := rulesService
	oldSettings := settingsService
	oldExplain := explainService

	ingestService = nil
	reviewService = nil
	searchService = nil
	rulesService = nil
	settingsService = nil
	explainService = nil

	return func() {
		ingestService = oldIngest
		reviewService = oldReview
		searchService = oldSearch
		rulesService = oldRules
		settingsService = oldSettings
		explainService = oldExplain
	}
}

func seedFixtures(
	t *testing.T,
	docStore *storagemem.DocumentStore,
	ruleStore *storagemem.RuleStore,
	tasks *storagemem.ReviewStore,
	sessions *storagemem.SessionStore,
	pipeline *services.EmbeddingPipeline,
) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	doc := &domain.Document{
		DocID:      "contract_a",
		Title:      "采购合同A",
		Path:       "/tmp/contract_a.json",
		PageCount:  5,
		ChunkCount: 2,
		Status:     domain.DocumentReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, docStore.SaveDocument(ctx, doc))

	chunks := []domain.Chunk{
		{
			ChunkID:    "contract_a_p3_c1",
			DocID:      "contract_a",
			Page:       3,
			Text:       "乙方应在45天内支付全部款项。",
			ClauseHint: "payment",
			CharStart:  0,
			CharEnd:    14,
			TokenCount: 14,
			CreatedAt:  now,
		},
		{
			ChunkID:    "contract_a_p5_c2",
			DocID:      "contract_a",
			Page:       5,
			Text:       "双方应对合同内容保密，未经书面同意不得向第三方披露。",
			ClauseHint: "confidentiality",
			CharStart:  14,
			CharEnd:    39,
			TokenCount: 25,
			CreatedAt:  now,
		},
	}
	require.NoError(t, docStore.SaveChunks(ctx, chunks))
	_, err := pipeline.IndexChunks(ctx, chunks)
	require.NoError(t, err)

	paymentRule := &domain.Rule{
		RuleID:   "payment_cycle_max_30",
		Name:     "付款周期不超过30天",
		Category: "Payment",
		Intent:   "付款周期必须在30天以内",
		Type:     domain.RuleNumericConstraint,
		Params: map[string]any{
			"field":    "payment_cycle_days",
			"operator": "<=",
			"value":    30,
		},
		RiskLevel:     domain.RiskHigh,
		RetrievalTags: []string{"payment", "付款"},
		Version:       1,
		Enabled:       true,
	}
	require.NoError(t, ruleStore.Save(ctx, paymentRule))

	disabledRule := &domain.Rule{
		RuleID:   "liability_cap_required",
		Name:     "责任上限条款",
		Category: "Liability",
		Intent:   "合同必须包含责任上限条款",
		Type:     domain.RuleRequirement,
		Params: map[string]any{
			"required_clauses": []string{"责任上限"},
		},
		RiskLevel:     domain.RiskMedium,
		RetrievalTags: []string{"liability"},
		Version:       1,
		Enabled:       false,
	}
	require.NoError(t, ruleStore.Save(ctx, disabledRule))

	started := now.Add(-time.Minute)
	task := &domain.ReviewTask{
		ReviewID: "review_contract_a_1a2b3c4d",
		DocID:    "contract_a",
		RuleIDs:  []string{"payment_cycle_max_30"},
		Status:   domain.ReviewCompleted,
		Results: []domain.ReviewResult{
			{
				RuleID:   "payment_cycle_max_30",
				RuleName: "付款周期不超过30天",
				Status:   domain.ResultRisk,
				Reason:   "付款周期为45天，超出30天上限。",
				Evidence: []domain.Evidence{
					{ChunkID: "contract_a_p3_c1", Page: 3, Text: "乙方应在45天内支付全部款项。"},
				},
				Confidence: 0.9,
				Suggestion: "将付款周期修改为30天以内。",
			},
		},
		StartedAt:   &started,
		CompletedAt: &now,
	}
	require.NoError(t, tasks.Save(ctx, task))

	session := &domain.ExplainSession{
		SessionID:   "session_abc123def456",
		ReviewID:    "review_contract_a_1a2b3c4d",
		RuleID:      "payment_cycle_max_30",
		Messages:    []domain.ExplainMessage{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	require.NoError(t, sessions.Save(ctx, session))
}
