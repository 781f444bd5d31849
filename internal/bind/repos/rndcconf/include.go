package rndcconf

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/haukened/rr-bindctl/internal/bind/domain"
)

// Resolution is the merged result of following every include from a root
// file, together with the canonical paths of all files that were read.
type Resolution struct {
	Document domain.ConfigDocument
	Files    []string
}

// ResolveIncludes parses the file at path and folds every included file into
// it. See Resolve for the merge rules.
func ResolveIncludes(path string) (domain.ConfigDocument, error) {
	res, err := Resolve(path)
	if err != nil {
		return domain.ConfigDocument{}, err
	}
	return res.Document, nil
}

// Resolve parses the file at path and recursively resolves its includes.
//
// Relative include paths are taken from the directory of the including file
// as it was named, before symlinks are followed. Files are identified by
// their canonical path and each may be read once per
// call; reading one again fails with ErrCircularInclude. When an included
// document is folded in, keys and servers the includer already defines are
// kept, and options only fill fields the includer left unset. Any failing
// include aborts the whole resolution.
func Resolve(path string) (Resolution, error) {
	r := &resolver{visited: make(map[string]struct{})}
	doc, err := r.resolve(path)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Document: doc, Files: r.files}, nil
}

type resolver struct {
	visited map[string]struct{}
	files   []string
}

func (r *resolver) resolve(path string) (domain.ConfigDocument, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.ConfigDocument{}, fileError(path, err)
	}
	canonical, err := canonicalize(abs)
	if err != nil {
		return domain.ConfigDocument{}, err
	}
	if _, seen := r.visited[canonical]; seen {
		return domain.ConfigDocument{}, &domain.ParseError{Kind: domain.ErrCircularInclude, Path: canonical}
	}
	r.visited[canonical] = struct{}{}
	r.files = append(r.files, canonical)

	data, err := os.ReadFile(canonical)
	if err != nil {
		return domain.ConfigDocument{}, fileError(canonical, err)
	}
	doc, err := ParseDocument(string(data))
	if err != nil {
		return domain.ConfigDocument{}, withPath(err, canonical)
	}

	includes := doc.Includes
	doc.Includes = make([]string, 0, len(includes))
	// Includes are relative to the file as named, not to a symlink target.
	dir := filepath.Dir(abs)
	for _, inc := range includes {
		target := inc
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		included, err := r.resolve(target)
		if err != nil {
			return domain.ConfigDocument{}, err
		}
		mergeInto(&doc, included)
		doc.Includes = append(doc.Includes, target)
	}
	return doc, nil
}

// mergeInto folds src into dst with dst winning every collision.
func mergeInto(dst *domain.ConfigDocument, src domain.ConfigDocument) {
	for name, key := range src.Keys {
		if _, ok := dst.Keys[name]; !ok {
			dst.Keys[name] = key
		}
	}
	for addr, srv := range src.Servers {
		if _, ok := dst.Servers[addr]; !ok {
			dst.Servers[addr] = srv
		}
	}
	dst.Options = dst.Options.FillFrom(src.Options)
}

func canonicalize(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fileError(abs, err)
	}
	return resolved, nil
}

func fileError(path string, err error) error {
	kind := domain.ErrIO
	if errors.Is(err, fs.ErrNotExist) {
		kind = domain.ErrFileNotFound
	}
	return &domain.ParseError{Kind: kind, Path: path, Err: err}
}

func withPath(err error, path string) error {
	if pe, ok := domain.AsParseError(err); ok {
		return pe.WithPath(path)
	}
	return err
}
