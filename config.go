package snaplll

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the snaplll configuration
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Compiler CompilerConfig `yaml:"compiler"`
	Run      RunConfig      `yaml:"run"`
}

// OutputConfig controls how compiled code is written
type OutputConfig struct {
	Format string `yaml:"format"` // hex or binary
	Dir    string `yaml:"dir"`
}

// CompilerConfig tunes the compilation pipeline
type CompilerConfig struct {
	FoldConstants    *bool  `yaml:"fold_constants"` // nil means enabled
	WarningsAsErrors bool   `yaml:"warnings_as_errors"`
	TempPrefix       string `yaml:"temp_prefix"`
}

// ShouldFoldConstants returns true unless folding was explicitly disabled
func (c *CompilerConfig) ShouldFoldConstants() bool {
	return c.FoldConstants == nil || *c.FoldConstants
}

// RunConfig configures the reference VM used by the run command
type RunConfig struct {
	Gas     uint64 `yaml:"gas"`
	Address string `yaml:"address"`
	Caller  string `yaml:"caller"`
}

// LoadConfig loads configuration from file with environment variable expansion
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	if !fileExists(configPath) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	switch config.Output.Format {
	case "hex", "binary":
	default:
		return fmt.Errorf("%w: output.format '%s' is invalid: must be one of hex, binary", ErrConfigValidation, config.Output.Format)
	}

	if strings.ContainsAny(config.Compiler.TempPrefix, "()[]{} \t\n\"';$~#") {
		return fmt.Errorf("%w: compiler.temp_prefix '%s' must be a plain identifier", ErrConfigValidation, config.Compiler.TempPrefix)
	}

	for name, value := range map[string]string{"run.address": config.Run.Address, "run.caller": config.Run.Caller} {
		if value == "" {
			continue
		}

		raw, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
		if err != nil || len(raw) > 20 {
			return fmt.Errorf("%w: %s must be a hex address of at most 20 bytes, got '%s'", ErrConfigValidation, name, value)
		}
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "hex",
			Dir:    ".",
		},
		Compiler: CompilerConfig{
			TempPrefix: "_temp",
		},
		Run: RunConfig{
			Gas: 10_000_000,
		},
	}
}

// applyDefaults fills in values missing from the configuration file
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.Output.Format == "" {
		config.Output.Format = defaults.Output.Format
	}

	if config.Output.Dir == "" {
		config.Output.Dir = defaults.Output.Dir
	}

	if config.Compiler.TempPrefix == "" {
		config.Compiler.TempPrefix = defaults.Compiler.TempPrefix
	}

	if config.Run.Gas == 0 {
		config.Run.Gas = defaults.Run.Gas
	}
}

// loadEnvFiles loads .env files
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

func expandConfigEnvVars(config *Config) {
	config.Output.Dir = expandEnvVars(config.Output.Dir)
	config.Run.Address = expandEnvVars(config.Run.Address)
	config.Run.Caller = expandEnvVars(config.Run.Caller)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
