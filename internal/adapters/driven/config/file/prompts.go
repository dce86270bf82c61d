package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
// The review template uses named {slot} placeholders filled by the prompt
// assembler; editing a slot name breaks substitution for that slot.
var defaultPrompts = map[string]string{
	driven.PromptReviewSystem: `你是一位专业的合同审核专家。`,

	driven.PromptReview: `请根据以下审核规则，对候选合同原文进行合规审查。

## 审核规则

- 规则 ID: {rule_id}
- 规则名称: {rule_name}
- 规则分类: {category}
- 规则类型: {rule_type}
- 风险等级: {risk_level}
- 审核意图: {intent}
- 规则参数:
{params_formatted}

## 候选原文
{chunks_formatted}

## 判定标准

- PASS: 候选原文满足规则要求
- RISK: 候选原文与规则要求冲突或存在合规风险
- MISSING: 候选原文中找不到与该规则相关的条款

## 输出要求

严格按照以下 JSON 格式输出审核结论，不要输出任何其他内容：

{
  "rule_id": "规则 ID",
  "status": "PASS、RISK 或 MISSING",
  "reason": "简要说明审核结论的依据",
  "evidence": [
    {"chunk_id": "引用片段的 ID", "page": 页码, "text": "引用的原文"}
  ],
  "confidence": 0 到 1 之间的数值,
  "suggestion": "整改建议（仅在 RISK 时提供）"
}

MISSING 时 evidence 为空数组。evidence 中只允许引用候选原文中出现过的片段。`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.trustlens/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".trustlens", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# TrustLens Prompts

This directory contains customisable prompts used by TrustLens reviews.

## Files

- ` + "`review.txt`" + ` - Per-rule review prompt sent as the user message
- ` + "`review_system.txt`" + ` - System prompt sent with every review completion

## Customisation

Edit any file to customise review behaviour. Changes take effect on the
next command.

## Slot Placeholders

The review prompt uses named slots filled per rule:
- ` + "`{rule_id}`, `{rule_name}`, `{category}`, `{rule_type}`, `{risk_level}`, `{intent}`" + `
- ` + "`{params_formatted}`" + ` - The rule parameters, one per line
- ` + "`{chunks_formatted}`" + ` - The retrieved contract passages

Keep the slot names intact; the model must still be instructed to answer
with the review result JSON.
`
	return os.WriteFile(path, []byte(content), 0600)
}
