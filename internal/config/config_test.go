package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetAppliesDefaultsAndLoadOverrides(t *testing.T) {
	// Before any successful Load, Get serves pure defaults.
	c := Get()
	if c.ForfeitWindowSeconds != DefaultForfeitWindowSeconds {
		t.Errorf("default forfeit window = %d, want %d", c.ForfeitWindowSeconds, DefaultForfeitWindowSeconds)
	}
	if c.Currency != DefaultCurrency {
		t.Errorf("default currency = %q, want %q", c.Currency, DefaultCurrency)
	}
	if c.IsAdmin("anyone") {
		t.Error("default config considers arbitrary users admins")
	}

	path := filepath.Join(t.TempDir(), "arena.json")
	data := `{
		"forfeit_window_seconds": 120,
		"rake_percent": 5,
		"house_id": "house",
		"starting_balance": 500,
		"admin_user_ids": ["admin-1"]
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	c = Get()
	if c.ForfeitWindowSeconds != 120 {
		t.Errorf("forfeit window = %d, want 120", c.ForfeitWindowSeconds)
	}
	if c.RakePercent != 5 || c.HouseID != "house" {
		t.Errorf("rake settings not applied: %+v", c)
	}
	// Unset fields still fall back.
	if c.Currency != DefaultCurrency {
		t.Errorf("currency = %q, want default %q", c.Currency, DefaultCurrency)
	}
	if !c.IsAdmin("admin-1") || c.IsAdmin("admin-2") {
		t.Error("admin list not honored")
	}
}
