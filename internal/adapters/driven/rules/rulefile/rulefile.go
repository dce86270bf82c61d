// Package rulefile loads rule packs from YAML or JSON files. A pack is
// either a bare list of rules or an envelope {"rules": [...]}, and a
// directory of packs can be watched for edits.
package rulefile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// debounceDelay batches rapid file events (editors often write a rule
// file several times in quick succession) into one reload.
const debounceDelay = 200 * time.Millisecond

// Ensure Loader implements the interface.
var _ driven.RuleSource = (*Loader)(nil)

// Loader reads rule packs from disk.
type Loader struct{}

// New creates a new rule pack loader.
func New() *Loader {
	return &Loader{}
}

// ruleDoc mirrors domain.Rule for file decoding. Enabled is a pointer
// so an omitted field defaults to true instead of disabling the rule.
type ruleDoc struct {
	RuleID           string         `json:"rule_id" yaml:"rule_id"`
	Name             string         `json:"name" yaml:"name"`
	Category         string         `json:"category" yaml:"category"`
	Intent           string         `json:"intent" yaml:"intent"`
	Type             string         `json:"type" yaml:"type"`
	Params           map[string]any `json:"params" yaml:"params"`
	RiskLevel        string         `json:"risk_level" yaml:"risk_level"`
	RetrievalTags    []string       `json:"retrieval_tags" yaml:"retrieval_tags"`
	PromptTemplateID string         `json:"prompt_template_id" yaml:"prompt_template_id"`
	Version          int            `json:"version" yaml:"version"`
	Enabled          *bool          `json:"enabled" yaml:"enabled"`
	Description      string         `json:"description" yaml:"description"`
}

// rulePack is the envelope form of a rule file.
type rulePack struct {
	Rules []ruleDoc `json:"rules" yaml:"rules"`
}

func (d ruleDoc) toRule() domain.Rule {
	rule := domain.Rule{
		RuleID:           d.RuleID,
		Name:             d.Name,
		Category:         d.Category,
		Intent:           d.Intent,
		Type:             domain.RuleType(d.Type),
		Params:           d.Params,
		RiskLevel:        domain.RiskLevel(d.RiskLevel),
		RetrievalTags:    d.RetrievalTags,
		PromptTemplateID: d.PromptTemplateID,
		Version:          d.Version,
		Enabled:          true,
	}
	if rule.Version <= 0 {
		rule.Version = 1
	}
	if d.Enabled != nil {
		rule.Enabled = *d.Enabled
	}
	rule.Description = d.Description
	return rule
}

// LoadFile reads all rule definitions in one pack file. Every rule must
// pass schema validation; the first failure aborts the load and names
// the offending rule.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]domain.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var docs []ruleDoc
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		docs, err = decodeRuleDocs(data, yaml.Unmarshal)
	case ".json":
		docs, err = decodeRuleDocs(data, json.Unmarshal)
	default:
		return nil, fmt.Errorf("%w: unsupported rule file format %q", domain.ErrInvalidInput, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", filepath.Base(path), err)
	}

	name := filepath.Base(path)
	seen := make(map[string]bool, len(docs))
	rules := make([]domain.Rule, 0, len(docs))
	for _, doc := range docs {
		rule := doc.toRule()
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %q in %s: %w", rule.RuleID, name, err)
		}
		if seen[rule.RuleID] {
			return nil, fmt.Errorf("%w: duplicate rule_id %q in %s", domain.ErrInvalidRule, rule.RuleID, name)
		}
		seen[rule.RuleID] = true
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules in %s", domain.ErrInvalidInput, name)
	}
	return rules, nil
}

// decodeRuleDocs accepts both a bare rule list and the envelope form.
// The bare list is tried first; mapping documents fall through to the
// envelope.
func decodeRuleDocs(data []byte, unmarshal func([]byte, any) error) ([]ruleDoc, error) {
	var list []ruleDoc
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}
	var pack rulePack
	if err := unmarshal(data, &pack); err != nil {
		return nil, err
	}
	return pack.Rules, nil
}

// LoadDir reads every rule pack in the directory, sorted by file name.
// A duplicate rule_id across packs aborts the load.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]domain.Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rule directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isRuleFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var rules []domain.Rule
	seen := make(map[string]string)
	for _, name := range names {
		loaded, err := l.LoadFile(ctx, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, rule := range loaded {
			if origin, ok := seen[rule.RuleID]; ok {
				return nil, fmt.Errorf("%w: rule_id %q in %s already defined in %s",
					domain.ErrInvalidRule, rule.RuleID, name, origin)
			}
			seen[rule.RuleID] = name
		}
		rules = append(rules, loaded...)
	}
	return rules, nil
}

// Watch reloads the directory on rule file changes and passes each
// successful reload to onChange. A reload that fails (a pack mid-edit,
// say) is skipped so the previous rule set stays in effect. Watch
// blocks until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context, dir string, onChange func([]domain.Rule)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating rule watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching rule directory: %w", err)
	}

	var mu sync.Mutex
	var debounce *time.Timer
	reload := func() {
		rules, err := l.LoadDir(ctx, dir)
		if err != nil {
			return
		}
		onChange(rules)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRuleFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, reload)
			mu.Unlock()

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// isRuleFile reports whether the file name looks like a rule pack.
func isRuleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
