package activity

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const validFilenameChars = "-_.() abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SanitizeFilename removes or replaces characters that are unsafe for a
// filename: the name is NFKD-normalized (accented letters decompose to
// their base letter), everything outside the allow-list is dropped and
// spaces become underscores. A maxLength of 0 means no truncation.
func SanitizeFilename(name string, maxLength int) string {
	cleaned := norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range cleaned {
		if strings.ContainsRune(validFilenameChars, r) {
			b.WriteRune(r)
		}
	}
	stripped := strings.ReplaceAll(b.String(), " ", "_")
	if maxLength > 0 && len(stripped) > maxLength {
		return stripped[:maxLength]
	}
	return stripped
}

// ResolvePath joins the export directory and subdirectory, substituting
// the {YYYY} and {MM} placeholders from an ISO date string.
func ResolvePath(directory, subdir, dateTime string) string {
	ret := filepath.Join(directory, subdir)
	if strings.Contains(ret, "{YYYY}") && len(dateTime) >= 4 {
		ret = strings.ReplaceAll(ret, "{YYYY}", dateTime[0:4])
	}
	if strings.Contains(ret, "{MM}") && len(dateTime) >= 7 {
		ret = strings.ReplaceAll(ret, "{MM}", dateTime[5:7])
	}
	return ret
}
