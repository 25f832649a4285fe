package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Retention.Days != 30 {
		t.Errorf("default retention = %d, want 30", cfg.Retention.Days)
	}
	if cfg.Media.InlineThreshold != 0 {
		t.Errorf("default inline threshold = %d, want 0 (library default)", cfg.Media.InlineThreshold)
	}
}

func TestStorageConfig_RequiresPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty storage path should fail")
	}
}

func TestMediaConfig_Validation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Media.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty media path should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Media.InlineThreshold = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative inline threshold should fail")
	}
}

func TestRetentionConfig_Bounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Retention.Days = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero retention should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Retention.Days = 9999
	if err := cfg.Validate(); err == nil {
		t.Fatal("absurd retention should fail")
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 0 should fail")
	}

	cfg = NewDefaultConfig()
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("port > 65535 should fail")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
