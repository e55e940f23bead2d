package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/obiente/translate/whisperkit/internal/whisper"
)

const (
	DefaultAddr           = ":8080"
	DefaultModelPath      = "./models/ggml-base.en.bin"
	DefaultLanguage       = "en"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "auto"
	DefaultMaxUploadBytes = 64 << 20
)

type Config struct {
	Addr           string `yaml:"addr"`
	ModelPath      string `yaml:"model_path"`
	Language       string `yaml:"language"`
	Translate      bool   `yaml:"translate"`
	Threads        int    `yaml:"threads"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Validate fills defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if !strings.EqualFold(c.Language, "auto") {
		if _, err := whisper.LangID(c.Language); err != nil {
			return fmt.Errorf("config: language: %w", err)
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	switch c.LogFormat {
	case "":
		c.LogFormat = DefaultLogFormat
	case "auto", "console", "json":
	default:
		return fmt.Errorf("config: log_format must be auto, console or json, got %q", c.LogFormat)
	}
	if c.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", c.Threads)
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return nil
}

// Params returns whisper's defaults overlaid with the configured language,
// thread count and translate flag. Print flags are off since servers report
// through their own logs.
func (c Config) Params() *whisper.Params {
	p := whisper.NewParams()
	if c.Language != "" {
		p.SetLanguage(c.Language)
	}
	if c.Threads > 0 {
		p.SetThreads(c.Threads)
	}
	p.SetTranslate(c.Translate)
	p.SetPrintProgress(false)
	p.SetPrintTimestamps(false)
	return p
}

// Loader reads an optional YAML file named by WHISPER_CONFIG and then applies
// environment overrides. Tests can replace Lookup and ReadFile.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load uses the process environment.
func Load() (Config, error) { return Loader{}.Load() }

func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	var cfg Config
	if path := getenv(l.Lookup, "WHISPER_CONFIG", ""); path != "" {
		raw, err := l.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	cfg.Addr = getenv(l.Lookup, "WHISPER_GO_ADDR", cfg.Addr)
	cfg.ModelPath = getenv(l.Lookup, "WHISPER_MODEL_PATH", cfg.ModelPath)
	cfg.Language = getenv(l.Lookup, "WHISPER_LANGUAGE", cfg.Language)
	cfg.Translate = getenvBool(l.Lookup, "WHISPER_TRANSLATE", cfg.Translate)
	cfg.LogLevel = getenv(l.Lookup, "LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv(l.Lookup, "LOG_FORMAT", cfg.LogFormat)

	var err error
	if cfg.Threads, err = getenvInt(l.Lookup, "WHISPER_THREADS", cfg.Threads); err != nil {
		return Config{}, err
	}
	upload, err := getenvInt(l.Lookup, "WHISPER_MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes))
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadBytes = int64(upload)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(lookup func(string) (string, bool), key, def string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getenvBool(lookup func(string) (string, bool), key string, def bool) bool {
	if v := getenv(lookup, key, ""); v != "" {
		switch v {
		case "0", "false", "no", "off", "False", "FALSE":
			return false
		default:
			return true
		}
	}
	return def
}

var errNotInt = errors.New("not an integer")

func getenvInt(lookup func(string) (string, bool), key string, def int) (int, error) {
	v := getenv(lookup, key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, errNotInt)
	}
	return n, nil
}
