package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MODEL_PATH", "")
	t.Setenv("SCHEDULE_TIMEZONE", "")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	th := cfg.Thresholds()
	if th.MinDimension != 32 || th.MaxDimension != 4096 {
		t.Errorf("Unexpected dimension range [%d, %d]", th.MinDimension, th.MaxDimension)
	}
	if th.ConfidenceThreshold != 0.6 {
		t.Errorf("Expected confidence threshold 0.6, got %f", th.ConfidenceThreshold)
	}
	if th.AllowContentTypeFallback {
		t.Error("Expected content type fallback to be off by default")
	}
	if loc, _ := cfg.Location(); loc != time.Local {
		t.Errorf("Expected local time zone, got %v", loc)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("ALLOW_CONTENT_TYPE_FALLBACK", "true")
	t.Setenv("SCHEDULE_TIMEZONE", "UTC")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.ConfidenceThreshold != 0.75 || cfg.MaxUploadBytes != 1024 || !cfg.AllowContentTypeFallback {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.RequestTimeout)
	}
	if loc, _ := cfg.Location(); loc.String() != "UTC" {
		t.Errorf("Expected UTC, got %v", loc)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "PORT", "70000"},
		{"port not numeric", "PORT", "http"},
		{"threshold above one", "CONFIDENCE_THRESHOLD", "1.5"},
		{"inverted dimensions", "MIN_DIMENSION", "5000"},
		{"unknown time zone", "SCHEDULE_TIMEZONE", "Mars/Olympus"},
		{"model without metadata", "MODEL_PATH", "/models/hall.onnx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestUsesAzure(t *testing.T) {
	cfg := &Config{AzureStorageAccount: "acct", AzureStorageKey: "key", AzureStorageContainer: "models"}
	if cfg.UsesAzure() {
		t.Error("Expected incomplete Azure settings to be ignored")
	}
	cfg.ModelBlobName = "hall.onnx"
	if !cfg.UsesAzure() {
		t.Error("Expected complete Azure settings to be used")
	}
}
