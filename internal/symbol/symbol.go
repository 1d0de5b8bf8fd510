package symbol

import "strings"

// Normalize canonicalizes a ticker symbol: trimmed, uppercased, with every
// character outside [A-Z0-9] removed. An empty result means the input was not
// a usable symbol; callers must reject it rather than store or query it.
func Normalize(raw string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
