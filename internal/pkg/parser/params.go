package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Recognizes "name: 50 Nm" / "name = 1.25 MPa" style declarations. The name
// side must look like words, not a bare number, so dates and enumerations do
// not match.
var paramRe = regexp.MustCompile(`(?im)^[^\S\n]*([a-zа-яё][a-zа-яё0-9 _/\-]{2,60}?)[^\S\n]*[:=][^\S\n]*(-?\d+(?:[.,]\d+)?)[^\S\n]*(nm|н·м|нм|mpa|мпа|kpa|bar|psi|kg|кг|g|mm|мм|cm|m|deg|°c|%)?[^\S\n]*$`)

const maxParameters = 200

// ExtractParameters pulls named numeric values out of free text. Returns nil
// when the text declares no structured values; the consistency checker
// reports that as insufficient data rather than treating it as "no conflict".
func ExtractParameters(text string) []NamedValue {
	matches := paramRe.FindAllStringSubmatch(text, maxParameters)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	values := make([]NamedValue, 0, len(matches))
	for _, m := range matches {
		name := NormalizeParamName(m[1])
		if name == "" || seen[name] {
			continue
		}
		raw := strings.TrimSpace(m[0])
		num, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
		if err != nil {
			continue
		}
		seen[name] = true
		values = append(values, NamedValue{
			Name:  name,
			Value: num,
			Unit:  strings.ToLower(m[3]),
			Raw:   raw,
		})
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeParamName lowercases and collapses whitespace so the same
// parameter spelled differently across documents compares equal.
func NormalizeParamName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return spaceRe.ReplaceAllString(name, " ")
}
