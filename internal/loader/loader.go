// Package loader reads medical documents from disk into text fragments
// for the extraction engine. Plain text and Markdown are read as-is;
// HTML exports are reduced to their visible text. Content is flattened
// (newlines collapsed) and long documents are split into overlapping
// chunks so one date-bearing header stays near the values it covers.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chartfact/chartfact/internal/cache"
	"github.com/chartfact/chartfact/internal/extract"
	"github.com/chartfact/chartfact/internal/model"
)

// Loader turns files and directories into fragments.
type Loader struct {
	chunkSize    int
	chunkOverlap int
	extensions   map[string]bool
	cache        cache.Cache // nil disables caching
	cacheTTL     time.Duration
}

// New creates a loader from configuration. Pass a nil cache to disable
// content caching.
func New(cfg model.LoaderConfig, c cache.Cache, ttl time.Duration) *Loader {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 500
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}

	return &Loader{
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
		extensions:   exts,
		cache:        c,
		cacheTTL:     ttl,
	}
}

// Supported reports whether the loader handles the file's extension.
func (l *Loader) Supported(path string) bool {
	return l.extensions[strings.ToLower(filepath.Ext(path))]
}

// LoadPaths loads every given path; directories are walked for
// supported files. Fragments keep the order files were encountered in.
func (l *Loader) LoadPaths(paths []string) ([]model.Fragment, error) {
	var fragments []model.Fragment
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			dirFrags, err := l.loadDir(path)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, dirFrags...)
			continue
		}
		fileFrags, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, fileFrags...)
	}
	return fragments, nil
}

// LoadFile loads one document and splits it into fragments labeled
// with the file's base name.
func (l *Loader) LoadFile(path string) ([]model.Fragment, error) {
	text, err := l.readFlattened(path)
	if err != nil {
		return nil, err
	}

	source := filepath.Base(path)
	chunks := l.chunk(text)
	fragments := make([]model.Fragment, 0, len(chunks))
	for _, chunk := range chunks {
		fragments = append(fragments, model.Fragment{Content: chunk, Source: source})
	}
	return fragments, nil
}

func (l *Loader) loadDir(dir string) ([]model.Fragment, error) {
	var fragments []model.Fragment
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !l.Supported(path) {
			return nil
		}
		fileFrags, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		fragments = append(fragments, fileFrags...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return fragments, nil
}

// readFlattened reads the file, reduces HTML to visible text, and
// collapses newlines, consulting the cache keyed on path+size+mtime.
func (l *Loader) readFlattened(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	key := cache.Key(path, info.Size(), info.ModTime())
	if l.cache != nil {
		if cached, ok := l.cache.Get(key); ok {
			return string(cached), nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text := string(raw)
	if isHTML(path) {
		text, err = visibleText(text)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", path, err)
		}
	}
	text = extract.Flatten(text)

	if l.cache != nil {
		l.cache.Set(key, []byte(text), l.cacheTTL)
	}
	return text, nil
}

// chunk splits flattened text into chunkSize pieces sharing
// chunkOverlap characters, cutting on a space where one is close to
// the boundary so values and units are not severed mid-token.
func (l *Loader) chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= l.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + l.chunkSize
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}
		cut := strings.LastIndexByte(text[start:end], ' ')
		// Only honor a space cut in the last fifth of the chunk.
		if cut > l.chunkSize-l.chunkSize/5 {
			end = start + cut
		}
		chunks = append(chunks, strings.TrimSpace(text[start:end]))
		start = end - l.chunkOverlap
	}
	return chunks
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}
