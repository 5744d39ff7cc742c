package export

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

// Slug lowercases a title and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slug(title string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
}

// shortID returns an 8-character id, collision-resistant within one data
// folder (not globally unique, which the use doesn't need).
func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Filename builds "{prefix}-{slug}-{id}.{ext}" inside the folder.
func Filename(folder, prefix, title, ext string) string {
	name := fmt.Sprintf("%s-%s-%s.%s", prefix, Slug(title), shortID(), ext)
	return filepath.Join(folder, name)
}

// JSONFilename builds "{prefix}-{id}.json" inside the folder, used for the
// aggregated artifacts.
func JSONFilename(folder, prefix string) string {
	return filepath.Join(folder, fmt.Sprintf("%s-%s.json", prefix, shortID()))
}
