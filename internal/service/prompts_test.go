package service

import "testing"

func TestPromptsCatalog(t *testing.T) {
	en := promptsFor("en")
	if en.Yes != "Yes" || en.No != "No" || en.ConfirmQuestion == "" || en.RequestFailed == "" {
		t.Fatalf("unexpected en prompts: %+v", en)
	}
	if got := promptsFor("es").Yes; got != "Sí" {
		t.Fatalf("expected spanish yes, got %q", got)
	}
	if got := promptsFor("ja"); got != en {
		t.Fatalf("expected fallback to en, got %+v", got)
	}
}

func TestLoadPrompts(t *testing.T) {
	catalog, err := loadPrompts([]byte("en:\n  \"yes\": \"Yes\"\n  \"no\": \"No\"\n  request_failed: \"fail\"\nsv:\n  \"yes\": \"Ja\"\n"))
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	sv := catalog["sv"]
	if sv.Yes != "Ja" || sv.No != "No" || sv.RequestFailed != "fail" {
		t.Fatalf("expected gaps filled from default, got %+v", sv)
	}

	if _, err := loadPrompts([]byte("es:\n  \"yes\": \"Sí\"\n")); err == nil {
		t.Fatalf("expected error without default locale")
	}
	if _, err := loadPrompts([]byte("en: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
