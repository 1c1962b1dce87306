// Package util provides common utility functions used across the pitchmark tool.
package util

import (
	"path/filepath"
	"strings"
)

// filenameReplacer maps characters that are unsafe in file names on at
// least one supported platform to underscores.
var filenameReplacer = strings.NewReplacer(
	" ", "_",
	":", "_",
	"/", "_",
	`\`, "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFilename replaces characters that are unsafe in file names with
// underscores.
func SanitizeFilename(s string) string {
	return filenameReplacer.Replace(s)
}

// BaseNameNoExt returns the last path element with its extension removed.
func BaseNameNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
