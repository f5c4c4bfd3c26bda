// Package upload holds the files picked for an upload, before anything is sent.
package upload

import "sync"

// File is a picked attachment. Its name identifies it within a selection.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// Selection is the set of locally chosen files pending upload.
// Every selection event replaces the whole set.
type Selection struct {
	mu    sync.RWMutex
	files []File
}

func NewSelection() *Selection { return new(Selection) }

// SetFiles replaces the current selection.
func (s *Selection) SetFiles(files []File) {
	cp := make([]File, len(files))
	copy(cp, files)

	s.mu.Lock()
	s.files = cp
	s.mu.Unlock()
}

func (s *Selection) Reset() {
	s.mu.Lock()
	s.files = nil
	s.mu.Unlock()
}

// Files returns a copy of the current selection.
func (s *Selection) Files() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.files) == 0 {
		return []File{}
	}
	cp := make([]File, len(s.files))
	copy(cp, s.files)
	return cp
}

func (s *Selection) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for _, f := range s.files {
		names = append(names, f.Name)
	}
	return names
}

func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *Selection) Empty() bool { return s.Len() == 0 }
