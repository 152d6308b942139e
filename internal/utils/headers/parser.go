package headers

import (
	"fmt"
	"strings"
)

// ParseHeaders converts "Key: Value" strings into a map. Later entries win
// over earlier ones with the same key; a line without a colon or with an
// empty key is an error.
func ParseHeaders(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		key, val, ok := strings.Cut(hdr, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed header %q: want \"Key: Value\"", hdr)
		}
		if strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("malformed header %q: key contains whitespace", hdr)
		}
		m[key] = strings.TrimSpace(val)
	}
	return m, nil
}
