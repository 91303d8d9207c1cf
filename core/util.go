package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanString trims all leading and trailing whitespace in `s`, applies NFC normalization
// (Bangla input from different keyboards composes differently) and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd finds the project root, the closest parent directory holding the go.mod file.
// go test runs in the package directory, so the working directory alone is not enough.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			// not running from the source tree (deployed binary)
			return wd
		}
		currDir = newDir
	}
}
