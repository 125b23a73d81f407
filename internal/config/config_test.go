package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"ENV", "BASE_URL", "AUDIT_STORE", "AUDIT_CAP", "AUDIT_MIN_INTERVAL", "AUDIT_PENALTY", "OPERATOR_HEADER", "SUPERVISOR_EMAILS", "RULES_RELOAD_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.AuditStore != AuditStoreFile {
		t.Errorf("AuditStore = %q, want %q", cfg.AuditStore, AuditStoreFile)
	}
	if cfg.AuditCap != 2000 {
		t.Errorf("AuditCap = %d, want 2000", cfg.AuditCap)
	}
	if cfg.AuditMinInterval != time.Second {
		t.Errorf("AuditMinInterval = %s, want 1s", cfg.AuditMinInterval)
	}
	if cfg.AuditPenalty != -50 {
		t.Errorf("AuditPenalty = %d, want -50", cfg.AuditPenalty)
	}
	if cfg.OperatorHeader != "X-Operator" {
		t.Errorf("OperatorHeader = %q, want X-Operator", cfg.OperatorHeader)
	}
	if cfg.RulesReloadInterval != 0 {
		t.Errorf("RulesReloadInterval = %s, want 0", cfg.RulesReloadInterval)
	}
	if !cfg.IsDev() {
		t.Error("IsDev() = false, want true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUDIT_STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUDIT_CAP", "500")
	t.Setenv("AUDIT_MIN_INTERVAL", "1500ms")
	t.Setenv("RULES_RELOAD_INTERVAL", "30")
	t.Setenv("SUPERVISOR_EMAILS", " lead@shop.vn, ,ops@shop.vn ")

	cfg := Load()

	if cfg.AuditStore != AuditStoreRedis {
		t.Errorf("AuditStore = %q, want redis", cfg.AuditStore)
	}
	if cfg.AuditCap != 500 {
		t.Errorf("AuditCap = %d, want 500", cfg.AuditCap)
	}
	if cfg.AuditMinInterval != 1500*time.Millisecond {
		t.Errorf("AuditMinInterval = %s, want 1.5s", cfg.AuditMinInterval)
	}
	if cfg.RulesReloadInterval != 30*time.Second {
		t.Errorf("RulesReloadInterval = %s, want 30s", cfg.RulesReloadInterval)
	}
	want := []string{"lead@shop.vn", "ops@shop.vn"}
	if !reflect.DeepEqual(cfg.SupervisorEmails, want) {
		t.Errorf("SupervisorEmails = %v, want %v", cfg.SupervisorEmails, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUDIT_CAP", "lots")
	t.Setenv("AUDIT_MIN_INTERVAL", "soon")

	cfg := Load()
	if cfg.AuditCap != 2000 {
		t.Errorf("AuditCap = %d, want fallback 2000", cfg.AuditCap)
	}
	if cfg.AuditMinInterval != time.Second {
		t.Errorf("AuditMinInterval = %s, want fallback 1s", cfg.AuditMinInterval)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{BaseURL: "https://desk.example.com", AuditStore: AuditStoreFile, AuditCap: 10, AuditMinInterval: time.Second, SMTPTLS: "starttls"}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad base url", func(c *Config) { c.BaseURL = "desk.example.com" }, true},
		{"unknown store", func(c *Config) { c.AuditStore = "s3" }, true},
		{"redis without url", func(c *Config) { c.AuditStore = AuditStoreRedis }, true},
		{"mongo without uri", func(c *Config) { c.AuditStore = AuditStoreMongo }, true},
		{"mongo with uri", func(c *Config) { c.AuditStore = AuditStoreMongo; c.MongoURI = "mongodb://x" }, false},
		{"zero cap", func(c *Config) { c.AuditCap = 0 }, true},
		{"zero interval", func(c *Config) { c.AuditMinInterval = 0 }, true},
		{"negative reload", func(c *Config) { c.RulesReloadInterval = -time.Second }, true},
		{"bad smtp tls", func(c *Config) { c.SMTPTLS = "ssl" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsEmailEnabled(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		from     string
		expected bool
	}{
		{"configured", "smtp.example.com", "desk@example.com", true},
		{"no host", "", "desk@example.com", false},
		{"no from", "smtp.example.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{SMTPHost: tt.host, SMTPFrom: tt.from}
			if got := c.IsEmailEnabled(); got != tt.expected {
				t.Errorf("IsEmailEnabled() = %v, want %v", got, tt.expected)
			}
		})
	}
}
