package engine

import (
	stealth "github.com/anatolykoptev/go-stealth"
)

// Re-export stealth types for engine consumers. The browser client carries a
// Chrome TLS fingerprint, which keeps watch-page HTML fetches off the bot
// heuristics that plain net/http user agents trip.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }

// User-Agent strings used across upstream clients.
const (
	UserAgentChrome  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	UserAgentAndroid = "com.google.android.youtube/19.14.37 (Linux; U; Android 11) gzip"
)
