package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SHOPIFY_DOMAIN", "dev-store.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_test")
	t.Setenv("FEDEX_API_KEY", "fedex-key")
	t.Setenv("FEDEX_SECRET_KEY", "fedex-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.FedExAPIURL != "https://apis-sandbox.fedex.com" {
		t.Errorf("FedExAPIURL = %s, want sandbox default", cfg.FedExAPIURL)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FEDEX_API_URL", "https://apis.fedex.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.FedExAPIURL != "https://apis.fedex.com" {
		t.Errorf("FedExAPIURL = %s, want production URL", cfg.FedExAPIURL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("SHOPIFY_DOMAIN", "dev-store.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_test")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing FedEx credentials")
	}
	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("error = %v, want config load failure", err)
	}
}
