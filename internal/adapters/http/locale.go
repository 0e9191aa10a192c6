package httpadapter

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// Index order matches matcherLocales.
var (
	localeMatcher  = language.NewMatcher([]language.Tag{language.Arabic, language.English})
	matcherLocales = []domain.Locale{domain.LocaleArabic, domain.LocaleEnglish}
)

// negotiateLocale prefers an explicit ?locale= value, then Accept-Language,
// then fallback. Only the query parameter can fail.
func negotiateLocale(r *http.Request, fallback domain.Locale) (domain.Locale, error) {
	if raw := r.URL.Query().Get("locale"); strings.TrimSpace(raw) != "" {
		return domain.ParseLocale(raw)
	}

	header := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if header == "" {
		return fallback, nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback, nil
	}
	_, idx, confidence := localeMatcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(matcherLocales) {
		return fallback, nil
	}
	return matcherLocales[idx], nil
}
