package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ingest Command Tests

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file]", ingestCmd.Use)
}

func TestIngestCmd_HasSubcommands(t *testing.T) {
	commands := ingestCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "list")
	assert.Contains(t, names, "show")
	assert.Contains(t, names, "chunks")
	assert.Contains(t, names, "delete")
}

func TestIngestCmd_RequiresFileArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIngestCmd_ErrorsWithoutService(t *testing.T) {
	cleanup := clearServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "somefile.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_IngestsPlainTextFile(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "contract_b.txt")
	content := "乙方应在30天内支付全部款项。\n\n双方应对合同内容保密。"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path, "--id", "contract_b"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestDocID = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Ingested contract_b")
	assert.Contains(t, buf.String(), "Pages:    1")
}

// Ingest List Tests

func TestIngestListCmd_Executes(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "contract_a")
	assert.Contains(t, buf.String(), "采购合同A")
	assert.Contains(t, buf.String(), "Total: 1 documents")
}

// Ingest Show Tests

func TestIngestShowCmd_Use(t *testing.T) {
	assert.Equal(t, "show [doc-id]", ingestShowCmd.Use)
}

func TestIngestShowCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIngestShowCmd_ExecutesWithArg(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "show", "contract_a"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Document: contract_a")
	assert.Contains(t, buf.String(), "Status:   READY")
}

func TestIngestShowCmd_UnknownDocumentFails(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "show", "no_such_doc"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}

// Ingest Chunks Tests

func TestIngestChunksCmd_ExecutesWithArg(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "chunks", "contract_a"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "contract_a_p3_c1")
	assert.Contains(t, buf.String(), "乙方应在45天内支付全部款项。")
	assert.Contains(t, buf.String(), "Total: 2 chunks")
}

func TestIngestChunksCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "chunks", "contract_a", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestJSON = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"chunk_id": "contract_a_p3_c1"`)
	assert.Contains(t, buf.String(), `"clause_hint": "payment"`)
}

// Ingest Delete Tests

func TestIngestDeleteCmd_ExecutesWithArg(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "delete", "contract_a"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Deleted document contract_a.")
}
