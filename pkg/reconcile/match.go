package reconcile

import "strings"

// identity returns the trimmed identity value as text.
func identity(v any) string {
	return strings.TrimSpace(toString(v))
}

// excluded reports the first excluded term that raw contains or that
// contains raw, case-insensitively.
func excluded(raw string, terms []string) (string, bool) {
	lr := strings.ToLower(raw)
	for _, term := range terms {
		lt := strings.ToLower(strings.TrimSpace(term))
		if lt == "" {
			continue
		}
		if strings.Contains(lr, lt) || strings.Contains(lt, lr) {
			return term, true
		}
	}
	return "", false
}

// canonicalize maps raw onto the vocabulary. An exact case-insensitive
// match anywhere in the vocabulary wins; otherwise the first entry that is
// contained in raw, or contains it, is taken. An empty vocabulary accepts
// raw as is.
func canonicalize(raw string, vocabulary []string) (string, bool) {
	if len(vocabulary) == 0 {
		return raw, true
	}
	lr := strings.ToLower(raw)
	for _, name := range vocabulary {
		if strings.ToLower(name) == lr {
			return name, true
		}
	}
	for _, name := range vocabulary {
		ln := strings.ToLower(name)
		if strings.Contains(lr, ln) || strings.Contains(ln, lr) {
			return name, true
		}
	}
	return "", false
}
