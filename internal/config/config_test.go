package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"HOST", "PORT", "MCP_HOST", "MCP_PORT", "SILICONFLOW_API_KEY", "OCR_LANGUAGES", "SOLVER_TIMEOUT_SECONDS", "MAX_IMAGE_PIXELS", "GIN_MODE"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
	if cfg.SiliconFlowAPIURL != DefaultSiliconFlowURL || cfg.Model != DefaultModel {
		t.Fatalf("unexpected upstream defaults %+v", cfg)
	}
	if cfg.SolverTimeout != 60*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.SolverTimeout)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"chi_sim", "eng"}) {
		t.Fatalf("unexpected languages %v", cfg.OCRLanguages)
	}
	if cfg.SiliconFlowAPIKey != "" {
		t.Fatalf("missing key must load as empty")
	}
	if cfg.MaxImagePixels != 89478485 {
		t.Fatalf("unexpected pixel limit %d", cfg.MaxImagePixels)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MCP_PORT", "9100")
	t.Setenv("MCP_HOST", "127.0.0.1")
	t.Setenv("SILICONFLOW_API_KEY", "sk-x")
	t.Setenv("OCR_LANGUAGES", "chi_sim+eng, equ")
	t.Setenv("SOLVER_TEMPERATURE", "0.5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9100" {
		t.Fatalf("MCP settings should win, got %s", cfg.Addr())
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"chi_sim", "eng", "equ"}) {
		t.Fatalf("unexpected languages %v", cfg.OCRLanguages)
	}
	if cfg.Temperature != 0.5 || cfg.SiliconFlowAPIKey != "sk-x" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := map[string][2]string{
		"port out of range": {"PORT", "70000"},
		"bad temperature":   {"SOLVER_TEMPERATURE", "3"},
		"tiny upload limit": {"MAX_UPLOAD_SIZE", "10"},
		"zero max tokens":   {"SOLVER_MAX_TOKENS", "0"},
		"unknown gin mode":  {"GIN_MODE", "relase"},
		"zero pixel limit":  {"MAX_IMAGE_PIXELS", "0"},
	}

	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("MCP_PORT", "")
			t.Setenv(kv[0], kv[1])
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected validation error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestUnparsableNumbersFallBack(t *testing.T) {
	t.Setenv("MCP_PORT", "")
	t.Setenv("PORT", "not-a-number")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 8000 {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
}
