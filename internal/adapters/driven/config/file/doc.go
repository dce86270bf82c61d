// Package file keeps configuration state under the user's
// ~/.trustlens directory: a TOML ConfigStore for settings and a
// PromptStore that materialises the embedded prompt templates as
// editable files.
package file
