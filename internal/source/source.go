// Package source finds the files under a content root that get published.
package source

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/jroosing/zonepress/internal/content"
)

// DefaultIgnore excludes every path containing it.
const DefaultIgnore = "ignore"

// Walk returns the regular files under root as slash-separated paths relative
// to root, in lexical order. Paths containing ignore are skipped; an empty
// ignore skips nothing.
func Walk(fsys afero.Fs, root, ignore string) ([]string, error) {
	var out []string
	err := afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ignore != "" && strings.Contains(rel, ignore) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// Load walks root and builds a document from every file found.
func Load(fsys afero.Fs, root, ignore string) ([]content.Document, error) {
	paths, err := Walk(fsys, root, ignore)
	if err != nil {
		return nil, err
	}
	docs := make([]content.Document, 0, len(paths))
	for _, rel := range paths {
		raw, err := afero.ReadFile(fsys, path.Join(filepath.ToSlash(root), rel))
		if err != nil {
			return nil, err
		}
		doc, err := content.NewDocument(rel, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
