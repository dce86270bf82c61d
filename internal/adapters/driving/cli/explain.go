package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
)

var (
	explainReviewID  string
	explainRuleID    string
	explainSessionID string
	explainJSON      bool
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Ask follow-up questions about review verdicts",
	Long: `Start a question-and-answer session over one rule's verdict. Answers
cite the evidence recorded during the review; sessions keep their
transcript so follow-up questions stay in context.`,
}

var explainAskCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a verdict",
	Long: `Ask a question about one rule's verdict. Pass --review and --rule to
start a fresh session, or --session to continue an existing one.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplainAsk,
}

var explainHistoryCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplainHistory,
}

var explainSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List explain sessions",
	Args:  cobra.NoArgs,
	RunE:  runExplainSessions,
}

var explainDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplainDelete,
}

func init() {
	explainAskCmd.Flags().StringVar(&explainReviewID, "review", "", "review ID to start a session for")
	explainAskCmd.Flags().StringVar(&explainRuleID, "rule", "", "rule ID to start a session for")
	explainAskCmd.Flags().StringVar(&explainSessionID, "session", "", "existing session to continue")
	explainAskCmd.Flags().BoolVar(&explainJSON, "json", false, "output the explanation as JSON")

	explainCmd.AddCommand(explainAskCmd)
	explainCmd.AddCommand(explainHistoryCmd)
	explainCmd.AddCommand(explainSessionsCmd)
	explainCmd.AddCommand(explainDeleteCmd)
	rootCmd.AddCommand(explainCmd)
}

func runExplainAsk(cmd *cobra.Command, args []string) error {
	if explainService == nil {
		return errors.New("explain service not configured")
	}

	ctx := context.Background()
	sessionID := explainSessionID
	if sessionID == "" {
		if explainReviewID == "" || explainRuleID == "" {
			return errors.New("pass --session, or --review and --rule to start a new session")
		}
		session, err := explainService.StartSession(ctx, explainReviewID, explainRuleID)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		sessionID = session.SessionID
		cmd.Printf("Started session %s.\n\n", sessionID)
	}

	explanation, err := explainService.Ask(ctx, sessionID, args[0])
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	if explainJSON {
		return printJSON(cmd, explanation)
	}

	cmd.Printf("%s\n\n", explanation.Answer)
	if explanation.Reasoning != "" {
		cmd.Printf("  Reasoning:  %s\n", explanation.Reasoning)
	}
	cmd.Printf("  Confidence: %s\n", explanation.Confidence)
	for _, ref := range explanation.EvidenceRefs {
		cmd.Printf("  Evidence (page %d, %s): %s\n", ref.Page, ref.Relevance, ref.Quote)
	}
	for _, lim := range explanation.Limitations {
		cmd.Printf("  Note: %s\n", lim)
	}
	cmd.Printf("\nContinue with 'trustlens explain ask --session %s'.\n", sessionID)
	return nil
}

func runExplainHistory(cmd *cobra.Command, args []string) error {
	if explainService == nil {
		return errors.New("explain service not configured")
	}

	session, err := explainService.GetSession(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	cmd.Printf("Session %s (review %s, rule %s)\n\n", session.SessionID, session.ReviewID, session.RuleID)
	if len(session.Messages) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}

	for i := range session.Messages {
		msg := &session.Messages[i]
		switch msg.Role {
		case "user":
			cmd.Printf("You: %s\n", msg.Content)
		case "assistant":
			// Assistant turns store the serialised explanation.
			var explanation domain.Explanation
			if err := json.Unmarshal([]byte(msg.Content), &explanation); err == nil && explanation.Answer != "" {
				cmd.Printf("TrustLens: %s\n", explanation.Answer)
			} else {
				cmd.Printf("TrustLens: %s\n", msg.Content)
			}
		default:
			cmd.Printf("%s: %s\n", msg.Role, msg.Content)
		}
		cmd.Println()
	}
	return nil
}

func runExplainSessions(cmd *cobra.Command, _ []string) error {
	if explainService == nil {
		return errors.New("explain service not configured")
	}

	sessions, err := explainService.ListSessions(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions found.")
		return nil
	}

	cmd.Println("Sessions:")
	cmd.Println()
	for i := range sessions {
		s := &sessions[i]
		cmd.Printf("  %s\n", s.SessionID)
		cmd.Printf("    Review: %s, Rule: %s, Messages: %d, Updated: %s\n",
			s.ReviewID, s.RuleID, len(s.Messages), s.LastUpdated.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("\nTotal: %d sessions\n", len(sessions))
	return nil
}

func runExplainDelete(cmd *cobra.Command, args []string) error {
	if explainService == nil {
		return errors.New("explain service not configured")
	}

	if err := explainService.DeleteSession(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	cmd.Printf("Deleted session %s.\n", args[0])
	return nil
}
