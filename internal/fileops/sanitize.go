package fileops

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxNameBytes = 255

// windowsDeviceNames are refused as file stems so a shared volume stays
// usable from Windows clients.
var windowsDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Sanitize reduces a client-supplied filename to a flat ASCII basename made
// of letters, digits, '_', '.' and '-'. The result never contains a path
// separator and is never "." or "..". An empty result means the name was
// unusable and must be rejected by the caller.
func Sanitize(raw string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(raw) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	name := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, name)
	name = strings.Trim(name, "._")
	if name == "" {
		return ""
	}

	stem, _, _ := strings.Cut(name, ".")
	if windowsDeviceNames[strings.ToUpper(stem)] {
		name = "_" + name
	}

	if len(name) > maxNameBytes {
		ext := filepath.Ext(name)
		if len(ext) >= maxNameBytes {
			ext = ""
		}
		name = name[:maxNameBytes-len(ext)] + ext
	}
	return name
}

// isFlatName reports whether name can only address a direct child of the
// document root.
func isFlatName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return true
}
