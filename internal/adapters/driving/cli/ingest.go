package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
)

var (
	ingestDocID string
	ingestTitle string
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a contract page file",
	Long: `Parses a page-span JSON file (or plain text), segments it into
clause-aware chunks, embeds them and adds them to the search index.
Ingesting under an existing document ID replaces the previous version.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runIngestList,
}

var ingestShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestShow,
}

var ingestChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Print a document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestChunks,
}

var ingestDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document, its chunks and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestDelete,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocID, "id", "", "document ID (derived from the file name when empty)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (derived from the file name when empty)")
	ingestChunksCmd.Flags().BoolVar(&ingestJSON, "json", false, "output chunks as JSON")

	ingestCmd.AddCommand(ingestListCmd)
	ingestCmd.AddCommand(ingestShowCmd)
	ingestCmd.AddCommand(ingestChunksCmd)
	ingestCmd.AddCommand(ingestDeleteCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	stats, err := ingestService.Ingest(ctx, driving.IngestRequest{
		Path:  args[0],
		DocID: ingestDocID,
		Title: ingestTitle,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s\n\n", stats.DocID)
	cmd.Printf("  Pages:    %d\n", stats.Pages)
	cmd.Printf("  Chunks:   %d\n", stats.Chunks)
	cmd.Printf("  Indexed:  %d\n", stats.Indexed)
	if stats.EmbedFailed > 0 {
		cmd.Printf("  Embedding failures: %d (chunks stored but not searchable)\n", stats.EmbedFailed)
	}
	cmd.Printf("  Duration: %s\n", stats.Duration.Round(time.Millisecond))
	return nil
}

func runIngestList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docs, err := ingestService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].DocID)
		cmd.Printf("    Title:  %s\n", docs[i].Title)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		cmd.Printf("    Pages:  %d, Chunks: %d\n", docs[i].PageCount, docs[i].ChunkCount)
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runIngestShow(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	doc, err := ingestService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.DocID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Path:     %s\n", doc.Path)
	cmd.Printf("  Status:   %s\n", doc.Status)
	if doc.StatusMessage != "" {
		cmd.Printf("  Detail:   %s\n", doc.StatusMessage)
	}
	cmd.Printf("  Pages:    %d\n", doc.PageCount)
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runIngestChunks(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	chunks, err := ingestService.Chunks(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if ingestJSON {
		return printJSON(cmd, chunks)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks stored.")
		return nil
	}

	for i := range chunks {
		cmd.Printf("[%s] page %d, %d tokens, clause: %s\n",
			chunks[i].ChunkID, chunks[i].Page, chunks[i].TokenCount, chunks[i].ClauseHint)
		cmd.Printf("  %s\n\n", chunks[i].Text)
	}
	cmd.Printf("Total: %d chunks\n", len(chunks))
	return nil
}

func runIngestDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s.\n", args[0])
	return nil
}

// printJSON renders any value as indented JSON on the command output.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
