// Package runtime embeds a Risor VM for user-supplied trace transform
// scripts. A transform script receives the trace tree as the global "trace"
// (plain Go maps, slices, and scalars) and evaluates to the transformed
// tree. Scripts load from a directory on disk or from an fs.FS.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
)

// Runtime loads and executes Risor transform scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS configures the Runtime to load scripts from an fs.FS instead of
// from disk. Also configures the Risor importer to resolve import
// statements against the same filesystem.
func WithFS(fsys fs.FS) Option {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// New creates a Runtime loading scripts relative to scriptsDir, unless an
// fs.FS is configured via WithFS.
func New(scriptsDir string, opts ...Option) *Runtime {
	r := &Runtime{scriptsDir: scriptsDir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunTransform executes the script at path with trace bound to the given
// tree and returns the script's result value as plain Go data. A script
// that evaluates to nil is an error: silently dropping the whole tree is
// never what a transform means.
func (r *Runtime) RunTransform(ctx context.Context, path string, trace any) (any, error) {
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}

	opts := []risor.Option{risor.WithGlobal("trace", trace)}
	if imp := r.buildImporter(); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, src, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", path, err)
	}
	out := result.Interface()
	if out == nil {
		return nil, fmt.Errorf("runtime: script %s: transform returned nil", path)
	}
	return out, nil
}

// LoadScript reads a .risor file and returns its source code.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildImporter returns a Risor importer for the configured script source,
// or nil when only inline evaluation is possible.
func (r *Runtime) buildImporter() importer.Importer {
	globalNames := []string{"trace"}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// RunSource executes Risor source directly, for tests and inline transforms.
func (r *Runtime) RunSource(ctx context.Context, source string, trace any) (any, error) {
	result, err := risor.Eval(ctx, source, risor.WithGlobal("trace", trace))
	if err != nil {
		return nil, fmt.Errorf("runtime: inline script: %w", err)
	}
	out := result.Interface()
	if out == nil {
		return nil, fmt.Errorf("runtime: inline script: transform returned nil")
	}
	return out, nil
}
