package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "5175" || c.Source != "remote" || c.CorpusSize != 16726 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Timeout != 10*time.Second || c.MaxRetries != 3 || c.SessionTTL != 2*time.Hour {
		t.Fatalf("unexpected duration defaults: %+v", c)
	}
	if c.Production {
		t.Fatal("development is the default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("HISTORY_SOURCE", "static")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("HISTORY_MAX_RETRIES", "5")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "9000" || c.Source != "static" || c.CacheTTL != 5*time.Minute || c.MaxRetries != 5 {
		t.Fatalf("env not applied: %+v", c)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"HISTORY_SOURCE": "ftp"}},
		{"zero corpus", map[string]string{"HISTORY_CORPUS_SIZE": "0"}},
		{"default secret in production", map[string]string{"NODE_ENV": "production"}},
		{"bad duration", map[string]string{"SESSION_TTL": "soon"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
