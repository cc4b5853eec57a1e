package importer

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// DirSource walks a directory and yields every image file in it, in
// lexical order.
type DirSource struct {
	paths   []string
	idx     int
	current *os.File
	err     error
}

func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if imageExtensions[ext] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return &DirSource{paths: paths}, nil
}

func (d *DirSource) Next() bool {
	if d.current != nil {
		_ = d.current.Close()
		d.current = nil
	}
	if d.idx >= len(d.paths) {
		return false
	}
	f, err := os.Open(d.paths[d.idx])
	d.idx++
	if err != nil {
		d.err = err
		return false
	}
	d.current = f
	return true
}

func (d *DirSource) Current() io.Reader {
	return d.current
}

func (d *DirSource) Err() error {
	return d.err
}

var _ ImageSource = (*DirSource)(nil)
