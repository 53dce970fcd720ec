package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig  BasicConfig  `json:"basic_config"`
	GeminiConfig GeminiConfig `json:"gemini_config"`
	OCRConfig    OCRConfig    `json:"ocr_config"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address"`
	MinWorkers        int    `json:"min_workers"`
	MaxWorkers        int    `json:"max_workers"`
	QueueSize         int    `json:"queue_size"`
	WorkerIdleTimeout int    `json:"worker_idle_timeout"` // minutes
}

type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

type OCRConfig struct {
	Binary    string   `json:"binary"`
	Languages []string `json:"languages"`
}

// Load reads configuration from the provided JSON path when given, then
// applies environment overrides. The Gemini API key must be supplied one way
// or the other; Load fails without it so startup can abort early.
func Load(path string) (*Config, error) {
	cfg := &Config{
		BasicConfig: BasicConfig{
			ServerAddress:     ":8080",
			MinWorkers:        2,
			MaxWorkers:        8,
			QueueSize:         64,
			WorkerIdleTimeout: 5,
		},
		GeminiConfig: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		OCRConfig: OCRConfig{
			Binary:    "tesseract",
			Languages: []string{"eng", "hin"},
		},
	}

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		file, err := os.Open(absPath)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", absPath, err)
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	cfg.BasicConfig.ServerAddress = getenv("REDTAPE_ADDR", cfg.BasicConfig.ServerAddress)
	cfg.BasicConfig.MinWorkers = getenvInt("REDTAPE_MIN_WORKERS", cfg.BasicConfig.MinWorkers)
	cfg.BasicConfig.MaxWorkers = getenvInt("REDTAPE_MAX_WORKERS", cfg.BasicConfig.MaxWorkers)
	cfg.BasicConfig.QueueSize = getenvInt("REDTAPE_QUEUE_SIZE", cfg.BasicConfig.QueueSize)
	cfg.BasicConfig.WorkerIdleTimeout = getenvInt("REDTAPE_WORKER_IDLE_MINUTES", cfg.BasicConfig.WorkerIdleTimeout)
	cfg.GeminiConfig.APIKey = getenv("GEMINI_API_KEY", cfg.GeminiConfig.APIKey)
	cfg.GeminiConfig.Model = getenv("GEMINI_MODEL", cfg.GeminiConfig.Model)
	cfg.OCRConfig.Binary = getenv("REDTAPE_TESSERACT", cfg.OCRConfig.Binary)
	if langs := os.Getenv("REDTAPE_OCR_LANGS"); langs != "" {
		cfg.OCRConfig.Languages = splitLangs(langs)
	}

	if cfg.GeminiConfig.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not found: set GEMINI_API_KEY")
	}
	if len(cfg.OCRConfig.Languages) == 0 {
		cfg.OCRConfig.Languages = []string{"eng"}
	}

	return cfg, nil
}

func splitLangs(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' })
	langs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			langs = append(langs, p)
		}
	}
	return langs
}

func getenv(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
