package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PASS_THRESHOLD", "")
	t.Setenv("PRACTICAL_EXPIRY_HOURS", "")

	cfg := Load()
	if cfg.PassThreshold != 74 {
		t.Fatalf("PassThreshold=%d want 74", cfg.PassThreshold)
	}
	if cfg.TrialPassThreshold != 70 {
		t.Fatalf("TrialPassThreshold=%d want 70", cfg.TrialPassThreshold)
	}
	if cfg.MaxLicensePoints != 12 {
		t.Fatalf("MaxLicensePoints=%d want 12", cfg.MaxLicensePoints)
	}
	if cfg.PracticalExpiryWindow != 24*time.Hour {
		t.Fatalf("PracticalExpiryWindow=%s", cfg.PracticalExpiryWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PASS_THRESHOLD", "80")
	t.Setenv("THEORY_QUESTION_COUNT", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test, ,http://b.test ")

	cfg := Load()
	if cfg.PassThreshold != 80 {
		t.Fatalf("PassThreshold=%d want 80", cfg.PassThreshold)
	}
	if cfg.TheoryQuestionCount != 50 {
		t.Fatalf("invalid int should fall back, got %d", cfg.TheoryQuestionCount)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://a.test" || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("AllowedOrigins=%v", cfg.AllowedOrigins)
	}
}

func TestTrialQuestionCountRestricted(t *testing.T) {
	t.Setenv("TRIAL_QUESTION_COUNT", "35")
	if got := Load().TrialQuestionCount; got != 20 {
		t.Fatalf("TrialQuestionCount=%d want 20", got)
	}

	t.Setenv("TRIAL_QUESTION_COUNT", "50")
	if got := Load().TrialQuestionCount; got != 50 {
		t.Fatalf("TrialQuestionCount=%d want 50", got)
	}
}
