package format

import "strings"

// Bullets puts each non-empty line of raw on its own line, prefixed with
// marker. Lines that already carry the marker aren't prefixed twice, so
// formatting a formatted block returns it unchanged. An empty marker only
// trims and drops blank lines.
func Bullets(raw, marker string) string {
	prefix := ""
	if marker != "" {
		prefix = marker + " "
	}
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if prefix != "" {
			line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
		// A bare marker is an empty bullet.
		if line == "" || (marker != "" && line == marker) {
			continue
		}
		out = append(out, prefix+line)
	}
	return strings.Join(out, "\n")
}
