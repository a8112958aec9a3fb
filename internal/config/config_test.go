package config

import (
	"os"
	"path/filepath"
	"testing"

	"roomboard/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
remote:
  host: "booking.example.org"
  login_token: "test_token"
  poll_interval_seconds: 60
database:
  path: "test.db"
rooms:
  - resource_id: 10
    name: "Main Hall"
    location_hint: "ground floor"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Remote.Host != "booking.example.org" {
		t.Errorf("expected host booking.example.org, got %s", cfg.Remote.Host)
	}
	if cfg.Remote.LoginToken != "test_token" {
		t.Errorf("expected login_token test_token, got %s", cfg.Remote.LoginToken)
	}
	if len(cfg.Rooms) != 1 || cfg.Rooms[0].ResourceID != 10 {
		t.Errorf("expected 1 room with resource id 10")
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected default web port 8080, got %d", cfg.Web.Port)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Remote:   RemoteConfig{Host: "host", LoginToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Rooms:    []models.Room{{ResourceID: 10, Name: "Main Hall"}},
			},
			wantErr: false,
		},
		{
			name: "missing host",
			cfg: Config{
				Remote:   RemoteConfig{LoginToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Rooms:    []models.Room{{ResourceID: 10, Name: "Main Hall"}},
			},
			wantErr: true,
		},
		{
			name: "missing token",
			cfg: Config{
				Remote:   RemoteConfig{Host: "host"},
				Database: DatabaseConfig{Path: "path"},
				Rooms:    []models.Room{{ResourceID: 10, Name: "Main Hall"}},
			},
			wantErr: true,
		},
		{
			name: "no rooms",
			cfg: Config{
				Remote:   RemoteConfig{Host: "host", LoginToken: "token"},
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "duplicate resource id",
			cfg: Config{
				Remote:   RemoteConfig{Host: "host", LoginToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Rooms: []models.Room{
					{ResourceID: 10, Name: "Main Hall"},
					{ResourceID: 10, Name: "Annex"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResourceIDsAreUnique(t *testing.T) {
	cfg := Config{
		Rooms: []models.Room{
			{ResourceID: 10, Name: "Main Hall"},
			{ResourceID: 11, Name: "Annex"},
			{ResourceID: 10, Name: "Main Hall (alias)"},
		},
	}

	ids := cfg.ResourceIDs()
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 11 {
		t.Errorf("expected unique ids [10 11], got %v", ids)
	}
}
