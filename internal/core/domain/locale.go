package domain

import (
	"fmt"
	"strings"
)

type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"
)

var SupportedLocales = []Locale{LocaleArabic, LocaleEnglish}

// ParseLocale accepts "ar" or "en" in any case.
func ParseLocale(raw string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(raw))) {
	case LocaleArabic:
		return LocaleArabic, nil
	case LocaleEnglish:
		return LocaleEnglish, nil
	default:
		return "", WrapError(ErrUnsupportedLocale, "parse locale", fmt.Errorf("locale=%q", raw))
	}
}
