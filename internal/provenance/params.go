package provenance

import "strings"

// escapeKey prefixes every ASCII uppercase letter with a backslash.
func escapeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// unescapeKey drops a backslash that directly precedes an ASCII uppercase letter.
func unescapeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '\\' && i+1 < len(key) && key[i+1] >= 'A' && key[i+1] <= 'Z' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
