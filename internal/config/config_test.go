// internal/config/config_test.go
package config

import "testing"

func TestPoolSizingDefaults(t *testing.T) {
	cfg := Load()
	if cfg.DBMaxConns != 25 {
		t.Errorf("DBMaxConns = %d, want 25", cfg.DBMaxConns)
	}
	if cfg.DBMinConns != 5 {
		t.Errorf("DBMinConns = %d, want 5", cfg.DBMinConns)
	}
}

func TestPoolSizingFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("DB_MIN_CONNS", "10")

	cfg := Load()
	if cfg.DBMaxConns != 50 {
		t.Errorf("DBMaxConns = %d, want 50", cfg.DBMaxConns)
	}
	if cfg.DBMinConns != 10 {
		t.Errorf("DBMinConns = %d, want 10", cfg.DBMinConns)
	}
}
