package config

import (
	"os"
	"strings"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if Exists() {
		t.Fatal("fresh config dir should have no config")
	}

	cfg := &AppConfig{
		Subnets:          []string{"192.168.1.0/24", "10.0.0.0/24"},
		ExitNode:         true,
		Device:           "eth0",
		OffloadPersisted: true,
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("config should exist after Save")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Subnets) != 2 || loaded.Subnets[0] != "192.168.1.0/24" {
		t.Errorf("subnets = %v, order must survive the round trip", loaded.Subnets)
	}
	if !loaded.ExitNode || !loaded.OffloadPersisted || loaded.Device != "eth0" {
		t.Errorf("loaded = %+v, want saved values", loaded)
	}
	if !loaded.HasSubnets() {
		t.Error("HasSubnets should be true")
	}
}

func TestConfigNeverContainsKeyMaterial(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Save(&AppConfig{Subnets: []string{"10.0.0.0/8"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(Path())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "tskey") || strings.Contains(strings.ToLower(string(data)), "auth_key") {
		t.Errorf("config file must not carry key material:\n%s", data)
	}

	info, err := os.Stat(Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %o, want 0600", info.Mode().Perm())
	}
}
