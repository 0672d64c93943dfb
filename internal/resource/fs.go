package resource

import (
	"os"
	"path/filepath"
	"strings"
)

// FsSource is a Source rooted at a configured assets directory on disk.
type FsSource struct {
	root string
}

// NewFsSource roots a FsSource at root, which need not itself be normalized.
func NewFsSource(root string) *FsSource {
	return &FsSource{root: filepath.Clean(root)}
}

func (s *FsSource) resolve(logical string) string {
	logical = Normalize(logical)
	return filepath.Join(s.root, filepath.FromSlash(logical))
}

func (s *FsSource) Read(logical string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(logical))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &IoError{Path: logical, Err: err}
	}
	return data, nil
}

func (s *FsSource) Exists(logical string) bool {
	_, err := os.Stat(s.resolve(logical))
	return err == nil
}

func (s *FsSource) ListFiles(dirLogical string) ([]string, error) {
	entries, err := os.ReadDir(s.resolve(dirLogical))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &IoError{Path: dirLogical, Err: err}
	}

	base := Normalize(dirLogical)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if base == "" {
			out = append(out, e.Name())
		} else {
			out = append(out, base+"/"+e.Name())
		}
	}
	return out, nil
}

func (s *FsSource) FullPath(logical string) string {
	return s.resolve(logical)
}

var _ Source = (*FsSource)(nil)

// pathPrefix reports whether full sits immediately under dir (one level).
func pathPrefix(full, dir string) bool {
	if dir == "" {
		return !strings.Contains(full, "/")
	}
	rest := strings.TrimPrefix(full, dir+"/")
	return rest != full && !strings.Contains(rest, "/")
}
