package container

import (
	"testing"

	"github.com/joshband/copy-that-sub002/internal/config"
)

func TestNewContainerWithDefaults(t *testing.T) {
	t.Setenv("MODEL_DIR", "")
	t.Setenv("STORAGE_TYPE", "")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	c, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close returned %v", err)
		}
	}()

	if c.Handler() == nil {
		t.Error("expected non-nil HTTP handler")
	}
	if c.Config() != cfg {
		t.Error("expected container to retain the provided config")
	}
}

func TestNewContainerRejectsUnknownStorage(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "carrier-pigeon")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if _, err := NewContainer(cfg); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
