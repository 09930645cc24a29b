// Package source loads script files, converting them to UTF-8 and
// extracting #info metadata before they reach the compiler.
package source

import (
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/text/encoding"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/fileutil"
)

// DefaultExt is the script file extension searched by LoadAll.
const DefaultExt = ".bgc"

// Source is one decoded script file.
type Source struct {
	Name     string   // path within the loader's file system
	Content  string   // UTF-8 text with directives blanked out
	Size     int      // size of the raw file in bytes
	Metadata Metadata // #info values
}

// Loader reads scripts from a file system.
type Loader struct {
	fsys     fs.FS
	encoding encoding.Encoding
}

// NewLoader creates a Loader over fsys. encodingName selects the fallback
// encoding for files without a byte order mark; see LookupEncoding.
func NewLoader(fsys fs.FS, encodingName string) (*Loader, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &Loader{fsys: fsys, encoding: enc}, nil
}

// Load reads a single script. The final path element is matched without
// regard to case.
func (l *Loader) Load(name string) (*Source, error) {
	data, err := fileutil.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", name, err)
	}
	return l.decode(name, data)
}

// LoadAll reads every file under root with extension ext (DefaultExt when
// empty), in lexical order.
func (l *Loader) LoadAll(root, ext string) ([]*Source, error) {
	if ext == "" {
		ext = DefaultExt
	}
	files, err := fileutil.FindByExt(l.fsys, root, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s script files found in %s", ext, root)
	}

	sources := make([]*Source, 0, len(files))
	for _, f := range files {
		data, err := fs.ReadFile(l.fsys, f)
		if err != nil {
			return nil, fmt.Errorf("failed to read script %s: %w", f, err)
		}
		src, err := l.decode(f, data)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (l *Loader) decode(name string, data []byte) (*Source, error) {
	text, err := Decode(data, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	text, md, err := extractDirectives(text)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	return &Source{
		Name:     path.Clean(name),
		Content:  text,
		Size:     len(data),
		Metadata: md,
	}, nil
}
