package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.debugmate/)
// 2. Global config (~/.config/debugmate/ - XDG compatible)
// 3. Project config (debugmate.json / .debugmate/)
// 4. DEBUGMATE_CONFIG file
// 5. DEBUGMATE_CONFIG_CONTENT inline JSON
// 6. Environment variables
// Defaults are applied last for anything still unset.
func Load(directory string) (*types.Config, error) {
	config := &types.Config{}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Dotdir global config (~/.debugmate/)
	home := os.Getenv("HOME")
	if home != "" {
		dotDir := filepath.Join(home, ".debugmate")
		loadOnce(filepath.Join(dotDir, "config.json"), dotDir)
		loadOnce(filepath.Join(dotDir, "debugmate.json"), dotDir)
		loadOnce(filepath.Join(dotDir, "debugmate.jsonc"), dotDir)
	}

	// 2. XDG-compatible global config (~/.config/debugmate/)
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "debugmate.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "debugmate.jsonc"), globalPath)
	loadOnce(filepath.Join(globalPath, "debugmate.yaml"), globalPath)

	// 3. Project config
	if directory != "" {
		projectConfigDir := filepath.Join(directory, ".debugmate")
		loadOnce(filepath.Join(directory, "debugmate.json"), directory)
		loadOnce(filepath.Join(directory, "debugmate.jsonc"), directory)
		loadOnce(filepath.Join(directory, "debugmate.yaml"), directory)
		loadOnce(filepath.Join(projectConfigDir, "debugmate.json"), projectConfigDir)
		loadOnce(filepath.Join(projectConfigDir, "debugmate.jsonc"), projectConfigDir)
	}

	// 4. DEBUGMATE_CONFIG file override
	if configPath := os.Getenv("DEBUGMATE_CONFIG"); configPath != "" {
		configDir := filepath.Dir(configPath)
		loadOnce(configPath, configDir)
	}

	// 5. DEBUGMATE_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("DEBUGMATE_CONFIG_CONTENT"); configContent != "" {
		var inlineConfig types.Config
		if err := json.Unmarshal([]byte(configContent), &inlineConfig); err == nil {
			mergeConfig(config, &inlineConfig)
		}
	}

	// 6. Environment variables (highest priority)
	applyEnvOverrides(config)

	applyDefaults(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
// YAML files are detected by extension; everything else is parsed as JSONC.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	var fileConfig types.Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	default:
		// Strip JSONC comments using tidwall/jsonc
		data = jsonc.ToJSON(data)

		// Apply interpolation
		data = interpolate(data, baseDir)

		if err := json.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	// Handle {env:VAR_NAME} placeholders
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	// Handle {file:path} placeholders
	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		// Resolve path
		if strings.HasPrefix(filePath, "~/") {
			home := os.Getenv("HOME")
			filePath = filepath.Join(home, filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		// Escape for JSON string
		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")

		return escaped
	})

	return []byte(str)
}

// mergeConfig merges source config into target. Later sources win field by
// field; zero values never overwrite.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}

	if source.Backend.BaseURL != "" {
		target.Backend.BaseURL = source.Backend.BaseURL
	}
	if source.Backend.MaxPayload > 0 {
		target.Backend.MaxPayload = source.Backend.MaxPayload
	}
	if source.Backend.NotebookStrategy != "" {
		target.Backend.NotebookStrategy = source.Backend.NotebookStrategy
	}
	if source.Backend.TimeoutSec > 0 {
		target.Backend.TimeoutSec = source.Backend.TimeoutSec
	}

	if source.Runner.Repo != "" {
		target.Runner.Repo = source.Runner.Repo
	}
	if source.Runner.TestPath != "" {
		target.Runner.TestPath = source.Runner.TestPath
	}
	if source.Runner.UseDocker {
		target.Runner.UseDocker = true
	}
	if source.Runner.TimeoutSec > 0 {
		target.Runner.TimeoutSec = source.Runner.TimeoutSec
	}

	if source.Archive != nil {
		target.Archive = source.Archive
	}
	if source.Watcher != nil {
		target.Watcher = source.Watcher
	}

	if source.Server.Host != "" {
		target.Server.Host = source.Server.Host
	}
	if source.Server.Port > 0 {
		target.Server.Port = source.Server.Port
	}

	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	if url := os.Getenv("DEBUGMATE_BACKEND"); url != "" {
		config.Backend.BaseURL = url
	}
	if raw := os.Getenv("DEBUGMATE_MAX_PAYLOAD"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			config.Backend.MaxPayload = n
		}
	}
	if strategy := os.Getenv("DEBUGMATE_NOTEBOOK_STRATEGY"); strategy != "" {
		config.Backend.NotebookStrategy = strategy
	}
	if repo := os.Getenv("DEBUGMATE_RUNNER_REPO"); repo != "" {
		config.Runner.Repo = repo
	}
	if level := os.Getenv("DEBUGMATE_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
}

// applyDefaults fills anything still unset after all sources merged.
func applyDefaults(config *types.Config) {
	if config.Backend.BaseURL == "" {
		config.Backend.BaseURL = types.DefaultBackendURL
	}
	if config.Backend.MaxPayload <= 0 {
		config.Backend.MaxPayload = types.DefaultMaxPayload
	}
	if config.Backend.NotebookStrategy == "" {
		config.Backend.NotebookStrategy = types.DefaultNotebookStrategy
	}
	if config.Backend.TimeoutSec <= 0 {
		config.Backend.TimeoutSec = types.DefaultRequestTimeout
	}
	if config.Runner.Repo == "" {
		config.Runner.Repo = types.DefaultRunnerRepo
	}
	if config.Runner.TestPath == "" {
		config.Runner.TestPath = types.DefaultRunnerTestPath
	}
	if config.Runner.TimeoutSec <= 0 {
		config.Runner.TimeoutSec = types.DefaultRunnerTimeout
	}
	if config.Server.Host == "" {
		config.Server.Host = types.DefaultServerHost
	}
	if config.Server.Port <= 0 {
		config.Server.Port = types.DefaultServerPort
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
