package app

import (
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/agentstation/venuemap/pkg/constants"
)

// TestLoadConfig verifies basic config loading.
func TestLoadConfig(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
	if config.Curated != CuratedMemory {
		t.Errorf("Curated = %q, want %q", config.Curated, CuratedMemory)
	}
	if config.Feed != FeedOverpass {
		t.Errorf("Feed = %q, want %q", config.Feed, FeedOverpass)
	}
	if config.SearchRadius != constants.DefaultSearchRadius {
		t.Errorf("SearchRadius = %d, want %d", config.SearchRadius, constants.DefaultSearchRadius)
	}
	if config.MergeTolerance != constants.DefaultMergeTolerance {
		t.Errorf("MergeTolerance = %v, want %v", config.MergeTolerance, constants.DefaultMergeTolerance)
	}
}

// TestConfig_EnvironmentVariables verifies VENUEMAP_ variables are read.
func TestConfig_EnvironmentVariables(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VENUEMAP_FEED", "Elastic")
	t.Setenv("VENUEMAP_SEARCH_RADIUS", "1500")
	t.Setenv("VENUEMAP_AUTO_REFRESH_INTERVAL", "90s")
	t.Setenv("VENUEMAP_AUTH_USERS", "alice:$2a$10$abc,bob:$2a$10$def")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Feed != FeedElastic {
		t.Errorf("Feed = %q, want %q", config.Feed, FeedElastic)
	}
	if config.SearchRadius != 1500 {
		t.Errorf("SearchRadius = %d, want 1500", config.SearchRadius)
	}
	if config.AutoRefreshInterval != 90*time.Second {
		t.Errorf("AutoRefreshInterval = %v, want 90s", config.AutoRefreshInterval)
	}
	if len(config.AuthUsers) != 2 || config.AuthUsers["alice"] != "$2a$10$abc" {
		t.Errorf("AuthUsers = %v", config.AuthUsers)
	}
}

// TestConfig_UpdateFromFlags verifies flag values win.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "table", LogLevel: "info"}
	config.UpdateFromFlags(true, false, true, "json", "")

	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "json" {
		t.Errorf("Format = %q, want json", config.Format)
	}
	if config.LogLevel != "info" {
		t.Errorf("empty log-level flag overwrote LogLevel: %q", config.LogLevel)
	}
}
