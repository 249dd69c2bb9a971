package locale

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"support-widget/internal/domain"
)

// Default es el locale cuando ninguna fuente de la pagina aporta uno.
const Default = "en"

var supported = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {}, "nl": {},
	"sv": {}, "da": {}, "no": {}, "fi": {}, "pl": {}, "cs": {}, "ru": {},
	"uk": {}, "tr": {}, "ar": {}, "he": {}, "hi": {}, "ja": {}, "ko": {},
	"zh": {},
}

var queryParams = []string{"lang", "locale", "language"}

// Supported reporta si el codigo esta en la lista blanca.
func Supported(code string) bool {
	_, ok := supported[strings.ToLower(code)]
	return ok
}

// Resolve deriva un locale de dos letras de la pagina anfitriona.
// Orden: segmento raiz del path, parametro de query, subdominio, idioma declarado, default.
func Resolve(page domain.PageContext) string {
	if u, err := url.Parse(strings.TrimSpace(page.URL)); err == nil {
		if code, ok := fromPath(u); ok {
			return code
		}
		if code, ok := fromQuery(u); ok {
			return code
		}
		if code, ok := fromSubdomain(u); ok {
			return code
		}
	}
	if code, ok := fromDeclared(page.DeclaredLanguage); ok {
		return code
	}
	return Default
}

func fromPath(u *url.URL) (string, bool) {
	path := strings.TrimPrefix(u.Path, "/")
	segment, _, _ := strings.Cut(path, "/")
	return whitelisted(segment)
}

func fromQuery(u *url.URL) (string, bool) {
	q := u.Query()
	for _, name := range queryParams {
		if code, ok := twoLetters(q.Get(name)); ok {
			return code, true
		}
	}
	return "", false
}

func fromSubdomain(u *url.URL) (string, bool) {
	labels := strings.Split(u.Hostname(), ".")
	if len(labels) < 3 {
		return "", false
	}
	return whitelisted(labels[0])
}

func fromDeclared(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		// idiomas no registrados en BCP-47 aun pueden traer un prefijo util
		return twoLetters(raw)
	}
	base, _ := tag.Base()
	return twoLetters(base.String())
}

func whitelisted(segment string) (string, bool) {
	if len(segment) != 2 {
		return "", false
	}
	code := strings.ToLower(segment)
	if !Supported(code) {
		return "", false
	}
	return code, true
}

// twoLetters toma las dos primeras letras ASCII de un valor como "en_US" o "fr-CA".
func twoLetters(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return "", false
	}
	code := strings.ToLower(raw[:2])
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return "", false
		}
	}
	return code, true
}

// Normalize reduce un eco del backend a un codigo de dos letras de la lista blanca, o "" si no sirve.
func Normalize(raw string) string {
	code, ok := twoLetters(raw)
	if !ok || !Supported(code) {
		return ""
	}
	return code
}
