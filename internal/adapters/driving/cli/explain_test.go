package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Explain Command Tests

func TestExplainCmd_Use(t *testing.T) {
	assert.Equal(t, "explain", explainCmd.Use)
}

func TestExplainCmd_HasSubcommands(t *testing.T) {
	commands := explainCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "ask")
	assert.Contains(t, names, "history")
	assert.Contains(t, names, "sessions")
	assert.Contains(t, names, "delete")
}

// Explain Ask Tests

func TestExplainAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", explainAskCmd.Use)
}

func TestExplainAskCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestExplainAskCmd_ErrorsWithoutService(t *testing.T) {
	cleanup := clearServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "ask", "为什么有风险"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "explain service not configured")
}

func TestExplainAskCmd_RequiresSessionOrReviewAndRule(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "ask", "为什么有风险"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pass --session, or --review and --rule")
}

func TestExplainAskCmd_StartsSessionAndAnswers(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{
		"explain", "ask", "为什么有风险",
		"--review", "review_contract_a_1a2b3c4d",
		"--rule", "payment_cycle_max_30",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		explainReviewID = ""
		explainRuleID = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Started session session_")
	assert.Contains(t, output, "该合同在「付款周期不超过30天」方面存在风险。付款周期为45天，超出30天上限。")
	assert.Contains(t, output, "Confidence: high")
	assert.Contains(t, output, "Evidence (page 3, 直接相关): 乙方应在45天内支付全部款项。")
	assert.Contains(t, output, "Continue with 'trustlens explain ask --session ")
}

func TestExplainAskCmd_ContinuesExistingSession(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{
		"explain", "ask", "相关条款在哪里",
		"--session", "session_abc123def456",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		explainSessionID = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.NotContains(t, output, "Started session")
	assert.Contains(t, output, "相关条款位于合同第 3 页。")
	assert.Contains(t, output, "Continue with 'trustlens explain ask --session session_abc123def456'.")
}

func TestExplainAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{
		"explain", "ask", "为什么不合规",
		"--session", "session_abc123def456",
		"--json",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		explainSessionID = ""
		explainJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, `"answer"`)
	assert.Contains(t, output, `"evidence_references"`)
	assert.Contains(t, output, `"confidence": "high"`)
}

func TestExplainAskCmd_UnknownReviewErrors(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{
		"explain", "ask", "为什么有风险",
		"--review", "no_such_review",
		"--rule", "payment_cycle_max_30",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		explainReviewID = ""
		explainRuleID = ""
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start session")
}

// Explain History Tests

func TestExplainHistoryCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestExplainHistoryCmd_EmptyTranscript(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "history", "session_abc123def456"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Session session_abc123def456 (review review_contract_a_1a2b3c4d, rule payment_cycle_max_30)")
	assert.Contains(t, output, "No questions asked yet.")
}

func TestExplainHistoryCmd_ShowsTranscript(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	askBuf := new(bytes.Buffer)
	rootCmd.SetOut(askBuf)
	rootCmd.SetErr(askBuf)
	rootCmd.SetArgs([]string{
		"explain", "ask", "为什么有风险",
		"--session", "session_abc123def456",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		explainSessionID = ""
	}()
	require.NoError(t, rootCmd.Execute())

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "history", "session_abc123def456"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "You: 为什么有风险")
	assert.Contains(t, output, "TrustLens: 该合同在「付款周期不超过30天」方面存在风险。")
}

func TestExplainHistoryCmd_UnknownSessionErrors(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "history", "session_nope"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get session")
}

// Explain Sessions Tests

func TestExplainSessionsCmd_ListsSessions(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "sessions"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Sessions:")
	assert.Contains(t, output, "session_abc123def456")
	assert.Contains(t, output, "Review: review_contract_a_1a2b3c4d, Rule: payment_cycle_max_30, Messages: 0")
	assert.Contains(t, output, "Total: 1 sessions")
}

// Explain Delete Tests

func TestExplainDeleteCmd_DeletesSession(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"explain", "delete", "session_abc123def456"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Deleted session session_abc123def456.")

	listBuf := new(bytes.Buffer)
	rootCmd.SetOut(listBuf)
	rootCmd.SetErr(listBuf)
	rootCmd.SetArgs([]string{"explain", "sessions"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, listBuf.String(), "No sessions found.")
}
