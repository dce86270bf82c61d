package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driving/tui"
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
)

var (
	startRuleIDs []string
	startJSON    bool
	runRuleIDs   []string
	resultsJSON  bool
	listStatus   string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run and inspect rule reviews",
	Long: `Run compliance rules against an ingested document and inspect the
resulting verdicts. Every rule yields PASS, RISK, MISSING or FAILED
with quoted evidence; one failing rule never aborts the review.`,
}

var reviewStartCmd = &cobra.Command{
	Use:   "start [doc-id]",
	Short: "Review a document, printing progress lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewStart,
}

var reviewRunCmd = &cobra.Command{
	Use:   "run [doc-id]",
	Short: "Review a document with a live progress display",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewRun,
}

var reviewStatusCmd = &cobra.Command{
	Use:   "status [review-id]",
	Short: "Show task progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewStatus,
}

var reviewResultsCmd = &cobra.Command{
	Use:   "results [review-id]",
	Short: "Show detailed verdicts with evidence",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewResults,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review tasks",
	Args:  cobra.NoArgs,
	RunE:  runReviewList,
}

var reviewDeleteCmd = &cobra.Command{
	Use:   "delete [review-id]",
	Short: "Delete a finished review task",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewDelete,
}

func init() {
	reviewStartCmd.Flags().StringSliceVar(&startRuleIDs, "rule", nil, "rule ID to apply (repeatable; all enabled rules when omitted)")
	reviewStartCmd.Flags().BoolVar(&startJSON, "json", false, "output the finished task as JSON")
	reviewRunCmd.Flags().StringSliceVar(&runRuleIDs, "rule", nil, "rule ID to apply (repeatable; all enabled rules when omitted)")
	reviewResultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "output results as JSON")
	reviewListCmd.Flags().StringVar(&listStatus, "status", "", "filter by task status (PENDING, RUNNING, COMPLETED, FAILED)")

	reviewCmd.AddCommand(reviewStartCmd)
	reviewCmd.AddCommand(reviewRunCmd)
	reviewCmd.AddCommand(reviewStatusCmd)
	reviewCmd.AddCommand(reviewResultsCmd)
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewDeleteCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runReviewStart(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}
	return reviewWithProgressLines(cmd, args[0], startRuleIDs, startJSON)
}

// reviewWithProgressLines runs a review printing one plain line per rule.
func reviewWithProgressLines(cmd *cobra.Command, docID string, ruleIDs []string, asJSON bool) error {
	cmd.Printf("Reviewing %s...\n", docID)

	task, err := reviewService.Review(context.Background(), driving.ReviewRequest{
		DocID:   docID,
		RuleIDs: ruleIDs,
		Progress: func(_ string, completed, total int, message string) {
			cmd.Printf("  [%d/%d] %s\n", completed, total, message)
		},
	})
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	if asJSON {
		return printJSON(cmd, task)
	}
	printReviewReport(cmd, task)
	return nil
}

func runReviewRun(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	// The live display needs a terminal. Pipes and CI fall back to the
	// same plain progress lines as 'review start'.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return reviewWithProgressLines(cmd, args[0], runRuleIDs, false)
	}

	docID := args[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tui.RuleEvent, 64)
	var task *domain.ReviewTask
	var reviewErr error

	go func() {
		defer close(events)
		task, reviewErr = reviewService.Review(ctx, driving.ReviewRequest{
			DocID:   docID,
			RuleIDs: runRuleIDs,
			Progress: func(reviewID string, completed, total int, message string) {
				events <- tui.RuleEvent{
					ReviewID:  reviewID,
					Completed: completed,
					Total:     total,
					Message:   message,
				}
			},
		})
	}()

	program := tea.NewProgram(tui.NewReviewModel(docID, events), tea.WithOutput(cmd.OutOrStdout()))
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("progress display error: %w", err)
	}
	if m, ok := finalModel.(tui.ReviewModel); ok && m.Aborted() {
		cancel()
	}
	// Drain until the review goroutine finishes so task and reviewErr
	// are safe to read.
	for range events {
	}

	if reviewErr != nil {
		return fmt.Errorf("review failed: %w", reviewErr)
	}
	printReviewReport(cmd, task)
	return nil
}

func runReviewStatus(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	task, err := reviewService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}

	completed, total := task.Progress()
	cmd.Printf("Review: %s\n\n", task.ReviewID)
	cmd.Printf("  Document: %s\n", task.DocID)
	cmd.Printf("  Status:   %s\n", task.Status)
	cmd.Printf("  Progress: %d/%d rules\n", completed, total)
	if task.StartedAt != nil {
		cmd.Printf("  Started:  %s\n", task.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if task.CompletedAt != nil {
		cmd.Printf("  Finished: %s\n", task.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if task.Error != "" {
		cmd.Printf("  Error:    %s\n", task.Error)
	}
	return nil
}

func runReviewResults(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	task, err := reviewService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}

	if resultsJSON {
		return printJSON(cmd, task.Results)
	}

	if len(task.Results) == 0 {
		cmd.Println("No results yet.")
		return nil
	}

	cmd.Printf("Results for %s (%s):\n\n", task.ReviewID, task.Status)
	for i := range task.Results {
		r := &task.Results[i]
		cmd.Printf("[%s] %s (%s)\n", r.Status, r.RuleName, r.RuleID)
		if r.Reason != "" {
			cmd.Printf("  Reason: %s\n", r.Reason)
		}
		cmd.Printf("  Confidence: %.2f\n", r.Confidence)
		if r.Suggestion != "" {
			cmd.Printf("  Suggestion: %s\n", r.Suggestion)
		}
		if r.Error != "" {
			cmd.Printf("  Error: %s\n", r.Error)
		}
		for j := range r.Evidence {
			cmd.Printf("  Evidence (page %d): %s\n", r.Evidence[j].Page, r.Evidence[j].Text)
		}
		cmd.Println()
	}
	return nil
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	status := domain.ReviewStatus(listStatus)
	if listStatus != "" && !status.IsValid() {
		return fmt.Errorf("invalid status filter: %s", listStatus)
	}

	tasks, err := reviewService.List(context.Background(), status)
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}

	if len(tasks) == 0 {
		cmd.Println("No reviews found.")
		return nil
	}

	cmd.Println("Reviews:")
	cmd.Println()
	for i := range tasks {
		completed, total := tasks[i].Progress()
		cmd.Printf("  %s\n", tasks[i].ReviewID)
		cmd.Printf("    Document: %s, Status: %s, Rules: %d/%d\n",
			tasks[i].DocID, tasks[i].Status, completed, total)
	}
	cmd.Printf("\nTotal: %d reviews\n", len(tasks))
	return nil
}

func runReviewDelete(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	if err := reviewService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	cmd.Printf("Deleted review %s.\n", args[0])
	return nil
}

// printReviewReport renders the finished task as a verdict summary.
func printReviewReport(cmd *cobra.Command, task *domain.ReviewTask) {
	counts := make(map[domain.ResultStatus]int)
	for i := range task.Results {
		counts[task.Results[i].Status]++
	}

	cmd.Printf("\nReview %s: %s\n", task.ReviewID, task.Status)
	if task.Error != "" {
		cmd.Printf("  Error: %s\n", task.Error)
	}
	cmd.Printf("  PASS %d, RISK %d, MISSING %d, FAILED %d\n\n",
		counts[domain.ResultPass], counts[domain.ResultRisk],
		counts[domain.ResultMissing], counts[domain.ResultFailed])

	for i := range task.Results {
		r := &task.Results[i]
		cmd.Printf("  [%-7s] %s\n", r.Status, r.RuleName)
	}
	if len(task.Results) > 0 {
		cmd.Printf("\nRun 'trustlens review results %s' for evidence.\n", task.ReviewID)
	}
}
