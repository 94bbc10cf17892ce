package scanner

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

var ErrFileType = errors.New("file type not accepted")

// headerSize is enough for every magic number filetype knows, tar included.
const headerSize = 262

// Category is a family of files the user may restrict an upload to.
type Category struct {
	Name       string
	Extensions []string
	// Kinds are filetype extensions the content must match. Empty means the
	// content must not be a recognised binary format.
	Kinds []string
}

var categories = map[string]Category{
	"pdf": {Name: "pdf", Extensions: []string{".pdf"}, Kinds: []string{"pdf"}},
	"db":  {Name: "db", Extensions: []string{".db", ".sqlite"}, Kinds: []string{"sqlite"}},
	"zip": {Name: "zip", Extensions: []string{".zip", ".tar", ".gz", ".tgz"}, Kinds: []string{"zip", "tar", "gz"}},
	"txt": {Name: "txt", Extensions: []string{".txt"}},
}

// Categories returns the accepted category names, "all" first.
func Categories() []string {
	names := make([]string, 0, len(categories)+1)
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{"all"}, names...)
}

// CheckFileType verifies that a file named name, starting with head, belongs
// to category. The empty category and "all" accept anything.
func CheckFileType(category, name string, head []byte) error {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == "all" {
		return nil
	}
	cat, ok := categories[category]
	if !ok {
		return fmt.Errorf("%w: unknown category %q", ErrFileType, category)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !contains(cat.Extensions, ext) {
		return fmt.Errorf("%w: %s is not one of %s", ErrFileType, name, strings.Join(cat.Extensions, ", "))
	}

	if len(head) > headerSize {
		head = head[:headerSize]
	}
	kind, _ := filetype.Match(head)

	if len(cat.Kinds) == 0 {
		if kind != filetype.Unknown {
			return fmt.Errorf("%w: %s looks like %s content", ErrFileType, name, kind.Extension)
		}
		return nil
	}
	if !contains(cat.Kinds, kind.Extension) {
		return fmt.Errorf("%w: %s content does not match %s", ErrFileType, name, category)
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
