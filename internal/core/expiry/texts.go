package expiry

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

//go:embed texts.yaml
var textsYAML []byte

const daysParam = "%{days}"

type textTable struct {
	Placeholder map[domain.Locale]string                                                 `yaml:"placeholder"`
	Messages    map[domain.ExpiryStatus]map[domain.Locale]string                         `yaml:"messages"`
	Titles      map[domain.DocumentKind]map[domain.ExpiryStatus]map[domain.Locale]string `yaml:"titles"`
}

var texts = mustParseTexts(textsYAML)

func mustParseTexts(raw []byte) *textTable {
	t, err := parseTexts(raw)
	if err != nil {
		panic(fmt.Sprintf("expiry: embedded texts: %v", err))
	}
	return t
}

func parseTexts(raw []byte) (*textTable, error) {
	var t textTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshal texts: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// validate requires every (kind, status, locale) cell to be present.
func (t *textTable) validate() error {
	var errs []error
	for _, locale := range domain.SupportedLocales {
		if t.Placeholder[locale] == "" {
			errs = append(errs, fmt.Errorf("placeholder missing for %s", locale))
		}
		for _, status := range notifiedStatuses {
			tmpl := t.Messages[status][locale]
			if !strings.Contains(tmpl, daysParam) {
				errs = append(errs, fmt.Errorf("message %s/%s missing %s", status, locale, daysParam))
			}
			for _, kind := range domain.DocumentKinds {
				if t.Titles[kind][status][locale] == "" {
					errs = append(errs, fmt.Errorf("title %s/%s/%s missing", kind, status, locale))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (t *textTable) title(kind domain.DocumentKind, status domain.ExpiryStatus, locale domain.Locale) string {
	return t.Titles[kind][status][locale]
}

func (t *textTable) message(status domain.ExpiryStatus, locale domain.Locale, days int) string {
	return strings.ReplaceAll(t.Messages[status][locale], daysParam, strconv.Itoa(days))
}

func (t *textTable) placeholder(locale domain.Locale) string {
	return t.Placeholder[locale]
}
