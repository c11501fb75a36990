package canon

import (
	"regexp"
	"strings"
)

var durationValue = regexp.MustCompile(`^(\d+)\s*(ms|milliseconds?|s|secs?|seconds?)?$`)

var booleanValues = map[string]string{
	"on": "on", "true": "on", "yes": "on", "enabled": "on",
	"off": "off", "false": "off", "no": "off", "disabled": "off",
}

// NormalizeValue folds common spellings of the same value together:
// bare numbers and second units become "<n>s", millisecond units "<n>ms",
// boolean-like words "on"/"off". Other values are trimmed and lowercased.
func NormalizeValue(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))

	if m := durationValue.FindStringSubmatch(s); m != nil {
		unit := "s"
		if strings.HasPrefix(m[2], "m") {
			unit = "ms"
		}
		return m[1] + unit
	}

	if b, ok := booleanValues[s]; ok {
		return b
	}
	return s
}
