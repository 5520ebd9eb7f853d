package utils

import (
	"net/http/httptest"
	"testing"
)

func TestExtractDeviceInfo(t *testing.T) {
	cases := []struct {
		name string
		ua   string
		want string
	}{
		{
			"chrome on windows",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Chrome 120 on Windows 10/11",
		},
		{
			"firefox on linux",
			"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
			"Firefox 115 on Linux",
		},
		{
			"safari on mac",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
			"Safari 605 on macOS",
		},
		{
			"android chrome",
			"Mozilla/5.0 (Linux; Android 13) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Mobile Safari/537.36",
			"Chrome 119 on Android",
		},
		{"no header", "", "Unknown Device"},
	}
	for _, c := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if c.ua != "" {
			req.Header.Set("User-Agent", c.ua)
		} else {
			req.Header.Del("User-Agent")
		}
		if got := ExtractDeviceInfo(req); got != c.want {
			t.Fatalf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestExtractIPAddress(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:54321"
	if got := ExtractIPAddress(req); got != "192.0.2.1" {
		t.Fatalf("remote addr: got %q, want 192.0.2.1", got)
	}

	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := ExtractIPAddress(req); got != "198.51.100.2" {
		t.Fatalf("x-real-ip: got %q, want 198.51.100.2", got)
	}

	// X-Forwarded-For wins over X-Real-IP and keeps the first hop.
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 70.41.3.18")
	if got := ExtractIPAddress(req); got != "203.0.113.7" {
		t.Fatalf("x-forwarded-for: got %q, want 203.0.113.7", got)
	}
}
