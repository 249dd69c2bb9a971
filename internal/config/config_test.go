package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("WIDGET_BACKEND_URL", "http://backend.test/chat")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.BackendTimeout != 60*time.Second || !cfg.AcceptLocaleEcho {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxMessages != 100 || cfg.EphemeralStore != StoreMemory || cfg.DurableStore != StoreMemory {
		t.Fatalf("unexpected store defaults: %+v", cfg)
	}
	if cfg.UsesPostgres() || cfg.UsesRedis() {
		t.Fatalf("memory defaults must not need external stores")
	}
}

func TestLoadConfig_RequiresBackendURL(t *testing.T) {
	t.Setenv("WIDGET_BACKEND_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without backend url")
	}
}

func TestValidate_StoreRequirements(t *testing.T) {
	cfg := Config{BackendURL: "http://x", EphemeralStore: StoreRedis, DurableStore: StorePostgres, MaxMessages: 100}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "REDIS_ADDR") || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected both requirements reported, got %v", err)
	}

	cfg.RedisAddr = "localhost:6379"
	cfg.DatabaseURL = "postgres://localhost/widget"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.DurableStore = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown store error")
	}
}

func TestValidate_DynamoRequiresTable(t *testing.T) {
	cfg := Config{BackendURL: "http://x", EphemeralStore: StoreMemory, DurableStore: StoreDynamo, MaxMessages: 100}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "WIDGET_DYNAMO_TABLE") {
		t.Fatalf("expected dynamo table requirement, got %v", err)
	}
	cfg.DynamoTable = "widget-storage"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.UsesDynamo() || !cfg.UsesAWS() {
		t.Fatalf("expected dynamo and aws to be required")
	}
}

func TestLoadConfig_AllowedOrigins(t *testing.T) {
	t.Setenv("WIDGET_BACKEND_URL", "http://backend.test/chat")
	t.Setenv("WIDGET_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("JWT_SECRET_PARAM", "/widget/jwt-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if !cfg.UsesAWS() || cfg.UsesDynamo() {
		t.Fatalf("secret param alone must only require aws config")
	}
}
