// Package manifest fetches and decodes the remote file manifest: the list
// of every file the local tree should contain, with its expected digest.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// Entry is one file listed by the manifest.
type Entry struct {
	// Path is slash-rooted as published ("/bin/game.exe").
	Path string
	// Digest is the expected hex-encoded content digest.
	Digest string
}

// RelPath returns Path without its leading separator.
func (e Entry) RelPath() string {
	return strings.TrimPrefix(e.Path, "/")
}

// Source produces the manifest entries for one synchronization pass.
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// Kind classifies a manifest failure.
type Kind int

const (
	Transport Kind = iota + 1
	Malformed
	Empty
)

var kindNames = [...]string{
	Transport: "transport",
	Malformed: "malformed",
	Empty:     "empty",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error reports why a manifest could not be used. Every manifest error is
// fatal to the pass.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("manifest %s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("manifest %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// document is the wire shape: {"Files":[{"Md5":"…","FilePath":"/…"}]}.
type document struct {
	Files *[]struct {
		Md5      string `json:"Md5"`
		FilePath string `json:"FilePath"`
	} `json:"Files"`
}

// Decode parses a manifest document. source is only used in errors.
func Decode(r io.Reader, source string) ([]Entry, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &Error{Kind: Malformed, Source: source, Err: err}
	}
	if doc.Files == nil {
		return nil, &Error{Kind: Malformed, Source: source, Err: errors.New(`missing "Files"`)}
	}
	if len(*doc.Files) == 0 {
		return nil, &Error{Kind: Empty, Source: source}
	}

	entries := make([]Entry, 0, len(*doc.Files))
	seen := make(map[string]struct{}, len(*doc.Files))
	for i, f := range *doc.Files {
		if err := validatePath(f.FilePath); err != nil {
			return nil, &Error{Kind: Malformed, Source: source, Err: fmt.Errorf("file %d: %w", i, err)}
		}
		if strings.TrimSpace(f.Md5) == "" {
			return nil, &Error{
				Kind:   Malformed,
				Source: source,
				Err:    fmt.Errorf("file %d (%s): missing digest", i, f.FilePath),
			}
		}
		if _, dup := seen[f.FilePath]; dup {
			return nil, &Error{
				Kind:   Malformed,
				Source: source,
				Err:    fmt.Errorf("duplicate path %s", f.FilePath),
			}
		}
		seen[f.FilePath] = struct{}{}
		entries = append(entries, Entry{Path: f.FilePath, Digest: strings.TrimSpace(f.Md5)})
	}
	return entries, nil
}

// validatePath requires a slash-rooted file path that stays inside the
// synchronization root once its leading separator is stripped.
func validatePath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("path %q is not slash-rooted", p)
	}
	if strings.HasSuffix(p, "/") || path.Clean(p) == "/" {
		return fmt.Errorf("path %q names a directory", p)
	}
	// Backslashes are separators on some platforms and never in the manifest.
	if strings.ContainsRune(p, '\\') {
		return fmt.Errorf("path %q contains a backslash", p)
	}
	for _, seg := range strings.Split(p[1:], "/") {
		if seg == ".." {
			return fmt.Errorf("path %q escapes the root", p)
		}
	}
	if !filepath.IsLocal(filepath.FromSlash(p[1:])) {
		return fmt.Errorf("path %q escapes the root", p)
	}
	return nil
}
