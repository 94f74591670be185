package domain

import "strings"

// NormalizePostalCode folds the spellings found in the disclosure export into
// the 5-character ZCTA form. Values that are not numeric are returned trimmed
// but otherwise untouched so they never collide with a real ZIP code.
func NormalizePostalCode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	// Float artifact from spreadsheet exports: "10001.0".
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	// ZIP+4: "10001-2062" or "10001 2062".
	if i := strings.IndexAny(s, "- "); i > 0 {
		s = s[:i]
	}
	if !isDigits(s) {
		return s
	}
	if len(s) < 5 {
		s = strings.Repeat("0", 5-len(s)) + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
