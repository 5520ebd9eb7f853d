package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSetAuthCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	rec := httptest.NewRecorder()
	SetAuthCookie(rec, "tok123")

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == AuthCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("auth cookie was not set")
	}
	if cookie.Value != "tok123" {
		t.Fatalf("cookie value = %q, want tok123", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("auth cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("dev cookie SameSite = %v, want Lax", cookie.SameSite)
	}
}

func TestClearAuthCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearAuthCookie(rec)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == AuthCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("clear did not write the auth cookie")
	}
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Fatalf("clear cookie value=%q maxAge=%d, want empty and -1", cookie.Value, cookie.MaxAge)
	}
}

func TestGetTokenFromRequest(t *testing.T) {
	// Cookie takes priority.
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")
	if got, err := GetTokenFromRequest(req); err != nil || got != "cookie-token" {
		t.Fatalf("got (%q, %v), want cookie-token", got, err)
	}

	// Falls back to the Authorization header.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	if got, err := GetTokenFromRequest(req); err != nil || got != "header-token" {
		t.Fatalf("got (%q, %v), want header-token", got, err)
	}

	// Nothing present is an error.
	req = httptest.NewRequest("GET", "/", nil)
	if _, err := GetTokenFromRequest(req); err == nil {
		t.Fatal("expected an error when no token is present")
	}
}
