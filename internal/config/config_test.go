package config_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiente/translate/whisperkit/internal/config"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

func envLoader(env map[string]string, files map[string]string) config.Loader {
	return config.Loader{
		Lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		ReadFile: func(path string) ([]byte, error) {
			if raw, ok := files[path]; ok {
				return []byte(raw), nil
			}
			return nil, fs.ErrNotExist
		},
	}
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := envLoader(nil, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAddr, cfg.Addr)
	assert.Equal(t, config.DefaultModelPath, cfg.ModelPath)
	assert.Equal(t, config.DefaultLanguage, cfg.Language)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, int64(config.DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Zero(t, cfg.Threads)
	assert.False(t, cfg.Translate)
}

func TestLoaderFileThenEnv(t *testing.T) {
	files := map[string]string{
		"/etc/whisperkit.yaml": `
addr: 127.0.0.1:9000
model_path: /models/ggml-small.bin
language: auto
threads: 2
log_format: json
`,
	}
	env := map[string]string{
		"WHISPER_CONFIG":    "/etc/whisperkit.yaml",
		"WHISPER_THREADS":   "6",
		"WHISPER_TRANSLATE": "yes",
		"LOG_LEVEL":         "debug",
	}
	cfg, err := envLoader(env, files).Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/models/ggml-small.bin", cfg.ModelPath)
	assert.Equal(t, "auto", cfg.Language)
	assert.Equal(t, 6, cfg.Threads)
	assert.True(t, cfg.Translate)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := envLoader(map[string]string{"WHISPER_CONFIG": "/nope.yaml"}, nil).Load()
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoaderRejectsBadValues(t *testing.T) {
	_, err := envLoader(map[string]string{"WHISPER_THREADS": "many"}, nil).Load()
	assert.Error(t, err)

	_, err = envLoader(map[string]string{"WHISPER_THREADS": "-1"}, nil).Load()
	assert.Error(t, err)

	_, err = envLoader(map[string]string{"LOG_FORMAT": "xml"}, nil).Load()
	assert.Error(t, err)

	_, err = envLoader(map[string]string{"WHISPER_LANGUAGE": "xx"}, nil).Load()
	assert.ErrorIs(t, err, whisper.ErrInvalidArgument)

	for _, lang := range []string{"auto", "AUTO", "de", "German"} {
		cfg, err := envLoader(map[string]string{"WHISPER_LANGUAGE": lang}, nil).Load()
		require.NoError(t, err, lang)
		assert.Equal(t, lang, cfg.Language)
	}

	_, err = envLoader(map[string]string{"WHISPER_CONFIG": "/bad.yaml"}, map[string]string{"/bad.yaml": "threads: [1"}).Load()
	assert.Error(t, err)
}

func TestGetenvBoolFalseValues(t *testing.T) {
	for _, v := range []string{"0", "false", "no", "off", "FALSE"} {
		cfg, err := envLoader(map[string]string{"WHISPER_TRANSLATE": v}, nil).Load()
		require.NoError(t, err)
		assert.False(t, cfg.Translate, v)
	}
}

func TestConfigParams(t *testing.T) {
	cfg := config.Config{Language: "auto", Threads: 3, Translate: true}
	p := cfg.Params()
	assert.Equal(t, "auto", p.Language())
	assert.Equal(t, 3, p.Threads())
	assert.True(t, p.Translate())
	assert.False(t, p.PrintProgress())
	assert.False(t, p.PrintTimestamps())

	assert.Equal(t, "en", config.Config{}.Params().Language())
}
