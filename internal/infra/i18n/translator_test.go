//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	msgs, err := parseMessages([]byte("greeting: hello\nwelcome_user: hello %s"))
	if err != nil {
		t.Fatalf("parseMessages failed: %v", err)
	}
	translator := &Translator{lang: "en", messages: msgs}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "hello" {
			t.Errorf("wanted 'hello', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted the key back, got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Ada"); got != "hello Ada" {
			t.Errorf("wanted 'hello Ada', got '%s'", got)
		}
	})
}

func TestNewTranslator(t *testing.T) {
	layered := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("a: english a\nb: english b")},
		"locales/fr.yaml": {Data: []byte("a: français a")},
	}

	t.Run("should load embedded english locale", func(t *testing.T) {
		tr, err := NewTranslator(LocalesFS, "en")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := tr.T("err_profile_update_failed"); got == "err_profile_update_failed" {
			t.Error("expected a translated profile update error")
		}
	})

	t.Run("should layer a locale over english", func(t *testing.T) {
		tr, err := NewTranslator(layered, "fr")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.T("a") != "français a" || tr.T("b") != "english b" {
			t.Errorf("unexpected layering: a=%q b=%q", tr.T("a"), tr.T("b"))
		}
	})

	t.Run("should fall back from a regional tag to its language", func(t *testing.T) {
		tr, err := NewTranslator(layered, "fr-CA")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.Lang() != "fr" {
			t.Errorf("expected fr, got %q", tr.Lang())
		}
	})

	t.Run("should serve english for a language without a file", func(t *testing.T) {
		tr, err := NewTranslator(layered, "de")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.Lang() != "en" || tr.T("a") != "english a" {
			t.Errorf("expected english fallback, got %q", tr.Lang())
		}
	})

	t.Run("should fail without the default locale", func(t *testing.T) {
		if _, err := NewTranslator(fstest.MapFS{}, "xx"); err == nil {
			t.Error("expected an error")
		}
	})
}
