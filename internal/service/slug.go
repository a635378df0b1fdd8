package service

import "strings"

// Slugify derives a URL-safe identifier from a display name.
//
// The transform is pure and deterministic: lower-case, drop everything
// outside [a-z0-9], whitespace, and hyphens, collapse whitespace/hyphen runs
// into single hyphens, trim leading/trailing hyphens.
//
// It is idempotent — Slugify(Slugify(x)) == Slugify(x) — which matters
// because imported repo names are often already slugs.
func Slugify(name string) string {
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // true so leading separators are swallowed
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		default:
			// Punctuation and anything exotic is dropped outright.
		}
	}

	return strings.TrimRight(b.String(), "-")
}
