// Package transform provides the built-in field transforms available to
// schema definitions.
package transform

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/adshift/adshift/internal/domain"
	"github.com/fatih/camelcase"
	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Builtins returns the built-in transforms keyed by name.
func Builtins() map[string]domain.TransformFunc {
	return map[string]domain.TransformFunc{
		"divide_by_100":               arith(func(n float64) float64 { return n / 100 }),
		"multiply_by_100":             arith(func(n float64) float64 { return n * 100 }),
		"extract_creative_data":       creatives("image_url", "headline"),
		"extract_tweet_creative_data": creatives("media_url", "text"),
		"map_objective":               MapObjective,
		"to_string":                   cast(domain.TypeString),
		"to_integer":                  cast(domain.TypeInteger),
		"to_float":                    cast(domain.TypeFloat),
		"to_boolean":                  cast(domain.TypeBoolean),
		"trim":                        stringFunc(strings.TrimSpace),
		"uppercase":                   stringFunc(strings.ToUpper),
		"lowercase":                   stringFunc(strings.ToLower),
		"snake_case":                  stringFunc(SnakeCase),
		"strip_diacritics":            stripDiacritics,
		"first_element":               firstElement,
	}
}

// RegisterBuiltins registers every built-in transform into reg.
func RegisterBuiltins(reg *domain.TransformRegistry) error {
	for name, fn := range Builtins() {
		if err := reg.Register(name, fn); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}
	return nil
}

func arith(fn func(float64) float64) domain.TransformFunc {
	return func(v domain.Value) (domain.Value, error) {
		n, ok := v.AsNumber()
		if !ok {
			return domain.Value{}, fmt.Errorf("expected number, got %s", v.Kind())
		}
		return domain.Number(fn(n)), nil
	}
}

func cast(t domain.FieldType) domain.TransformFunc {
	return func(v domain.Value) (domain.Value, error) {
		return domain.Coerce(v, t)
	}
}

func stringFunc(fn func(string) string) domain.TransformFunc {
	return func(v domain.Value) (domain.Value, error) {
		s, ok := v.AsString()
		if !ok {
			return domain.Value{}, fmt.Errorf("expected string, got %s", v.Kind())
		}
		return domain.String(fn(s)), nil
	}
}

// creatives converts a list of platform creatives into canonical
// {photo_url, title} objects. Missing members become null.
func creatives(urlKey, titleKey string) domain.TransformFunc {
	return func(v domain.Value) (domain.Value, error) {
		items, ok := v.AsList()
		if !ok {
			return domain.Value{}, fmt.Errorf("expected array of creatives, got %s", v.Kind())
		}
		out := make([]domain.Value, 0, len(items))
		for i, item := range items {
			if _, ok := item.AsObject(); !ok {
				return domain.Value{}, fmt.Errorf("creative %d: expected object, got %s", i, item.Kind())
			}
			url, _ := item.Field(urlKey)
			title, _ := item.Field(titleKey)
			out = append(out, domain.Object(map[string]domain.Value{
				"photo_url": url,
				"title":     title,
			}))
		}
		return domain.List(out...), nil
	}
}

var objectives = map[string]string{
	"LINK_CLICKS":         "DRIVE_WEBSITE_TRAFFIC",
	"WEBSITE_CLICKS":      "DRIVE_WEBSITE_TRAFFIC",
	"TRAFFIC":             "DRIVE_WEBSITE_TRAFFIC",
	"CONVERSIONS":         "ONLINE_PURCHASES",
	"WEBSITE_CONVERSIONS": "ONLINE_PURCHASES",
	"REACH":               "BRAND_AWARENESS",
	"AWARENESS":           "BRAND_AWARENESS",
	"BRAND_AWARENESS":     "BRAND_AWARENESS",
	"LEAD_GENERATION":     "LEADS_GENERATION",
	"APP_INSTALLS":        "MOBILE_APP_INSTALL",
}

// MapObjective translates a source campaign objective into a marketing
// objective of the canonical schema.
func MapObjective(v domain.Value) (domain.Value, error) {
	s, ok := v.AsString()
	if !ok {
		return domain.Value{}, fmt.Errorf("expected string, got %s", v.Kind())
	}
	mapped, ok := objectives[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return domain.Value{}, fmt.Errorf("no marketing objective for %q", s)
	}
	return domain.String(mapped), nil
}

// SnakeCase converts "MyCampaignName", "my campaign-name" and similar
// inputs into "my_campaign_name".
func SnakeCase(s string) string {
	var words []string
	for _, w := range camelcase.Split(s) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w != "" {
			words = append(words, strings.ToLower(w))
		}
	}
	return strings.Join(words, "_")
}

func stripDiacritics(v domain.Value) (domain.Value, error) {
	s, ok := v.AsString()
	if !ok {
		return domain.Value{}, fmt.Errorf("expected string, got %s", v.Kind())
	}
	t := xtransform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := xtransform.String(t, s)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.String(out), nil
}

func firstElement(v domain.Value) (domain.Value, error) {
	items, ok := v.AsList()
	if !ok {
		return domain.Value{}, fmt.Errorf("expected array, got %s", v.Kind())
	}
	if len(items) == 0 {
		return domain.Null(), nil
	}
	return items[0], nil
}
