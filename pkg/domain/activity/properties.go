package activity

import "strings"

// ParseProperties reads a multiline string of key=value pairs (Java
// properties style) into a lookup map, preserving key order. Lines
// starting with '#' are comments; surrounding quotes on values are
// stripped.
func ParseProperties(multiline string) (map[string]string, []string) {
	props := make(map[string]string)
	var keys []string
	for _, line := range strings.Split(multiline, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		key, value, found := strings.Cut(stripped, "=")
		if !found {
			value = ""
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if _, seen := props[key]; !seen {
			keys = append(keys, key)
		}
		props[key] = value
	}
	return props, keys
}

// ValueIfFoundElseKey looks up a display name, falling back to the key
// itself when the lookup table has no entry.
func ValueIfFoundElseKey(table map[string]string, key string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return key
}
