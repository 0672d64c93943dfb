package resource

import (
	"archive/zip"
	"io"
	"sort"
	"sync"
)

// ZipSource is a Source backed by a packed archive. The central directory
// is indexed once on first access and the index is cached.
type ZipSource struct {
	path string

	mu      sync.Mutex
	indexed bool
	reader  *zip.ReadCloser
	files   map[string]*zip.File
}

// NewZipSource defers opening the archive until the first Read/Exists/ListFiles.
func NewZipSource(path string) *ZipSource {
	return &ZipSource{path: path}
}

func (s *ZipSource) ensureIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed {
		return nil
	}

	r, err := zip.OpenReader(s.path)
	if err != nil {
		return &IoError{Path: s.path, Err: err}
	}
	s.reader = r
	s.files = make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		s.files[Normalize(f.Name)] = f
	}
	s.indexed = true
	return nil
}

func (s *ZipSource) Read(logical string) ([]byte, error) {
	if err := s.ensureIndex(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	f, ok := s.files[Normalize(logical)]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	rc, err := f.Open()
	if err != nil {
		return nil, &IoError{Path: logical, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &IoError{Path: logical, Err: err}
	}
	return data, nil
}

func (s *ZipSource) Exists(logical string) bool {
	if err := s.ensureIndex(); err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[Normalize(logical)]
	return ok
}

func (s *ZipSource) ListFiles(dirLogical string) ([]string, error) {
	if err := s.ensureIndex(); err != nil {
		return nil, err
	}
	dir := Normalize(dirLogical)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0)
	for name := range s.files {
		if pathPrefix(name, dir) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *ZipSource) FullPath(logical string) string {
	return s.path + "!" + Normalize(logical)
}

// Close releases the underlying archive handle.
func (s *ZipSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil {
		return s.reader.Close()
	}
	return nil
}

var _ Source = (*ZipSource)(nil)
