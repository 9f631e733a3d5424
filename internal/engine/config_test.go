package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  main_url: \"https://example.com\"\n")
	c, err := LoadAppConfig(path)
	require.NoError(t, err)

	if c.Server.Port != 2823 {
		t.Errorf("default port = %d, want 2823", c.Server.Port)
	}
	if c.API.RequestTimeout != 30 {
		t.Errorf("default request_timeout = %d, want 30", c.API.RequestTimeout)
	}
	if c.Video.DefaultCount != 50 {
		t.Errorf("default_count = %d, want 50", c.Video.DefaultCount)
	}
	if c.Cache.TempFolderMaxSizeMB != 5120 {
		t.Errorf("temp_folder_max_size_mb = %d, want 5120", c.Cache.TempFolderMaxSizeMB)
	}
}

func TestTidy(t *testing.T) {
	c := &AppConfig{}
	c.API.Keys.Active = []string{" keyB ", "keyA", "keyA", "", "  "}
	c.API.Keys.Disabled = []string{"dead2", " dead1"}
	c.Video.AvailableQualities = []string{"720", "144", "1080p", "144", "abc"}
	c.Instances = []string{"https://B.example/", "https://a.example", "https://b.example"}

	c.Tidy()

	if got, want := c.API.Keys.Active, []string{"keyA", "keyB"}; !equalStrings(got, want) {
		t.Errorf("active keys = %v, want %v", got, want)
	}
	if got, want := c.API.Keys.Disabled, []string{"dead1", "dead2"}; !equalStrings(got, want) {
		t.Errorf("disabled keys = %v, want %v", got, want)
	}
	if got, want := c.Video.AvailableQualities, []string{"144", "720", "1080p", "abc"}; !equalStrings(got, want) {
		t.Errorf("qualities = %v, want %v", got, want)
	}
	// B.example and b.example collapse to one instance
	if len(c.Instances) != 2 {
		t.Errorf("instances = %v, want 2 entries", c.Instances)
	}
}

func TestTidyIdempotent(t *testing.T) {
	c := &AppConfig{}
	c.API.Keys.Active = []string{"b", "a", "a"}
	c.Video.AvailableQualities = []string{"360", "144"}
	c.Tidy()
	first := append([]string(nil), c.API.Keys.Active...)
	c.Tidy()
	if !equalStrings(c.API.Keys.Active, first) {
		t.Errorf("second Tidy changed keys: %v vs %v", c.API.Keys.Active, first)
	}
}

func TestAPIKeyRotation(t *testing.T) {
	c := &AppConfig{}
	c.API.Keys.Active = []string{"k1", "k2", "k3"}
	c.API.Keys.Disabled = []string{"k2"}

	seen := map[string]int{}
	for i := 0; i < 6; i++ {
		seen[c.APIKey()]++
	}
	if seen["k2"] != 0 {
		t.Error("disabled key was returned")
	}
	if seen["k1"] != 3 || seen["k3"] != 3 {
		t.Errorf("uneven rotation: %v", seen)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	c := &AppConfig{}
	if got := c.APIKey(); got != DefaultAPIKey {
		t.Errorf("empty config key = %q, want default", got)
	}
	c.API.Keys.Active = []string{"only"}
	c.API.Keys.Disabled = []string{"only"}
	if got := c.APIKey(); got != DefaultAPIKey {
		t.Errorf("all-disabled key = %q, want default", got)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	path := writeConfig(t, defaultConfigYAML)
	c, err := LoadAppConfig(path)
	require.NoError(t, err)

	c.API.Keys.Active = []string{"zzz", "aaa"}
	require.NoError(t, c.Persist(path))

	reloaded, err := LoadAppConfig(path)
	require.NoError(t, err)
	if !equalStrings(reloaded.API.Keys.Active, []string{"aaa", "zzz"}) {
		t.Errorf("reloaded keys = %v", reloaded.API.Keys.Active)
	}
	if reloaded.Server.Port != 2823 {
		t.Errorf("port lost on round trip: %d", reloaded.Server.Port)
	}
	if len(reloaded.Instances) != 3 {
		t.Errorf("instances lost on round trip: %v", reloaded.Instances)
	}
}

func TestRedirectBase(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*AppConfig)
		want string
	}{
		{"oauth redirect wins", func(c *AppConfig) {
			c.API.OAuth.RedirectURI = "https://oauth.example/"
			c.Server.MainURL = "https://main.example"
		}, "https://oauth.example"},
		{"main url next", func(c *AppConfig) {
			c.Server.MainURL = "https://main.example/"
			c.Instances = []string{"https://inst.example"}
		}, "https://main.example"},
		{"first instance next", func(c *AppConfig) {
			c.Instances = []string{"https://inst.example/"}
		}, "https://inst.example"},
		{"localhost last", func(c *AppConfig) {}, "http://localhost:2823"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{}
			c.applyDefaults()
			tt.mut(c)
			if got := c.RedirectBase(); got != tt.want {
				t.Errorf("RedirectBase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
