package locales

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedLocale is returned for locale tags the catalog cannot resolve.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// DefaultLocale is used when the caller supplies no locale at all.
const DefaultLocale = "en-US"

// aliases maps bare language codes and common names to canonical tags.
var aliases = map[string]string{
	"en":         "en-US",
	"english":    "en-US",
	"es":         "es-ES",
	"spanish":    "es-ES",
	"fr":         "fr-FR",
	"french":     "fr-FR",
	"de":         "de-DE",
	"german":     "de-DE",
	"it":         "it-IT",
	"pt":         "pt-BR",
	"portuguese": "pt-BR",
	"ja":         "ja-JP",
	"japanese":   "ja-JP",
	"ko":         "ko-KR",
	"zh":         "zh-CN",
	"ru":         "ru-RU",
	"nl":         "nl-NL",
	"pl":         "pl-PL",
	"sv":         "sv-SE",
	"uk":         "uk-UA",
}

// Normalize resolves a caller-supplied locale into a canonical BCP-47 tag.
// Empty input falls back to the default locale; a full language-region tag
// is canonicalized as-is.
func Normalize(raw string) (string, error) {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return DefaultLocale, nil
	}

	lower := strings.ToLower(strings.ReplaceAll(tag, "_", "-"))
	if canonical, ok := aliases[lower]; ok {
		return canonical, nil
	}

	parts := strings.Split(lower, "-")
	if len(parts) == 2 && len(parts[0]) == 2 && len(parts[1]) == 2 {
		return parts[0] + "-" + strings.ToUpper(parts[1]), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, raw)
}

// Supported lists the catalog's canonical locales in sorted order.
func Supported() []string {
	seen := make(map[string]bool, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, canonical := range aliases {
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out
}
