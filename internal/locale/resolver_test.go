package locale

import (
	"testing"

	"support-widget/internal/domain"
)

func TestResolvePrecedence(t *testing.T) {
	cases := []struct {
		name string
		page domain.PageContext
		want string
	}{
		{
			name: "path segment beats everything",
			page: domain.PageContext{URL: "https://fr.example.com/de/help?lang=es", DeclaredLanguage: "it"},
			want: "de",
		},
		{
			name: "query beats subdomain",
			page: domain.PageContext{URL: "https://fr.example.com/help?lang=es_MX", DeclaredLanguage: "it"},
			want: "es",
		},
		{
			name: "locale param",
			page: domain.PageContext{URL: "https://example.com/help?locale=pt-BR"},
			want: "pt",
		},
		{
			name: "language param",
			page: domain.PageContext{URL: "https://example.com/help?language=NL"},
			want: "nl",
		},
		{
			name: "subdomain beats declared",
			page: domain.PageContext{URL: "https://fr.example.com/help", DeclaredLanguage: "it"},
			want: "fr",
		},
		{
			name: "declared language",
			page: domain.PageContext{URL: "https://www.example.com/help", DeclaredLanguage: "ja-JP"},
			want: "ja",
		},
		{
			name: "default",
			page: domain.PageContext{URL: "https://example.com/help"},
			want: "en",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.page); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveRejectsUnlistedCodes(t *testing.T) {
	// "xx" no esta en la lista blanca, ni como path ni como subdominio
	got := Resolve(domain.PageContext{URL: "https://xx.example.com/xx/help", DeclaredLanguage: "ko"})
	if got != "ko" {
		t.Fatalf("expected fallback to declared language, got %q", got)
	}
}

func TestResolveIgnoresLongPathSegments(t *testing.T) {
	got := Resolve(domain.PageContext{URL: "https://example.com/docs/en"})
	if got != Default {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestResolveSkipsShortQueryValue(t *testing.T) {
	got := Resolve(domain.PageContext{URL: "https://example.com/?lang=e&locale=de"})
	if got != "de" {
		t.Fatalf("expected locale param to win after invalid lang, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("ES-es"); got != "es" {
		t.Fatalf("expected es, got %q", got)
	}
	if got := Normalize("1x"); got != "" {
		t.Fatalf("expected empty for non letters, got %q", got)
	}
}

func TestNormalizeRejectsUnlistedEcho(t *testing.T) {
	for _, raw := range []string{"zz", "xx-YY", "qq_QQ"} {
		if got := Normalize(raw); got != "" {
			t.Fatalf("Normalize(%q) = %q, expected empty", raw, got)
		}
	}
	if got := Normalize("pt-BR"); got != "pt" {
		t.Fatalf("expected pt, got %q", got)
	}
}
