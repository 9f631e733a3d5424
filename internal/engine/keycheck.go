package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// keyProbeBase is a package var so tests can point probes at a fake upstream.
var keyProbeBase = "https://www.googleapis.com/youtube/v3"

// probeVideoID is a video that has existed since 2009 and is not going away.
const probeVideoID = "dQw4w9WgXcQ"

// KeyCheckReport summarizes a key health sweep.
type KeyCheckReport struct {
	Checked int      `json:"checked"`
	Failed  []string `json:"failed"`
	Revived []string `json:"revived,omitempty"`
	Active  int      `json:"active"`
	Message string   `json:"message,omitempty"`
}

// MaskKey hides the middle of an API key for log and report output.
func MaskKey(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:3] + "***" + key[len(key)-2:]
}

// ProbeKey checks whether a Data API key is accepted upstream by requesting
// a single well-known video id.
func ProbeKey(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	probeURL := fmt.Sprintf("%s/videos?part=id&id=%s&key=%s", keyProbeBase, probeVideoID, url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// CheckActiveKeys reloads the config from disk, probes every active key,
// moves failures to the disabled list and persists the result.
func CheckActiveKeys(ctx context.Context) (KeyCheckReport, error) {
	IncrKeyCheck()
	conf, err := LoadAppConfig(cfg.ConfigPath)
	if err != nil {
		return KeyCheckReport{}, fmt.Errorf("load config: %w", err)
	}

	if len(conf.API.Keys.Active) == 0 {
		return KeyCheckReport{Message: "No api_keys configured"}, nil
	}

	var working, failed []string
	for _, key := range conf.API.Keys.Active {
		if ProbeKey(ctx, key) {
			working = append(working, key)
		} else {
			failed = append(failed, key)
			slog.Warn("api key failed probe", slog.String("key", MaskKey(key)))
		}
	}

	report := KeyCheckReport{
		Checked: len(conf.API.Keys.Active),
		Failed:  maskAll(failed),
		Active:  len(working),
	}

	if len(failed) > 0 {
		conf.API.Keys.Active = working
		conf.API.Keys.Disabled = append(conf.API.Keys.Disabled, failed...)
		if err := conf.Persist(cfg.ConfigPath); err != nil {
			return report, fmt.Errorf("persist config: %w", err)
		}
	}
	return report, nil
}

// ReviveDisabledKeys probes the disabled list and moves keys that answer
// again back to active.
func ReviveDisabledKeys(ctx context.Context) (KeyCheckReport, error) {
	IncrKeyCheck()
	conf, err := LoadAppConfig(cfg.ConfigPath)
	if err != nil {
		return KeyCheckReport{}, fmt.Errorf("load config: %w", err)
	}

	if len(conf.API.Keys.Disabled) == 0 {
		return KeyCheckReport{Message: "No disabled keys"}, nil
	}

	var revived, stillDead []string
	for _, key := range conf.API.Keys.Disabled {
		if ProbeKey(ctx, key) {
			revived = append(revived, key)
		} else {
			stillDead = append(stillDead, key)
		}
	}

	report := KeyCheckReport{
		Checked: len(conf.API.Keys.Disabled),
		Failed:  maskAll(stillDead),
		Revived: maskAll(revived),
	}

	if len(revived) > 0 {
		conf.API.Keys.Active = append(conf.API.Keys.Active, revived...)
		conf.API.Keys.Disabled = stillDead
		if err := conf.Persist(cfg.ConfigPath); err != nil {
			return report, fmt.Errorf("persist config: %w", err)
		}
	}
	report.Active = len(conf.API.Keys.Active)
	return report, nil
}

func maskAll(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, MaskKey(k))
	}
	return out
}
