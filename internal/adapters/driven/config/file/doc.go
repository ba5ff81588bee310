// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - Loader: settings from a TOML file, a .env file and the environment
//   - PromptStore: user-editable answer prompts with embedded defaults
package file
