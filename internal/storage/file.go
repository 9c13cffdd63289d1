package storage

import (
	"context"
	"encoding/json"
	"os"
	"sync"
)

// File persists the whole key space as a single JSON document on
// disk, loaded once on open and rewritten after every mutation. It
// is the local-file analogue of a browser's origin-scoped storage.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]json.RawMessage
}

// OpenFile loads the store at path, creating an empty one if the
// file does not exist. A file that fails to parse starts over empty.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, data: make(map[string]json.RawMessage)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		f.data = make(map[string]json.RawMessage)
	}
	return f, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := make(json.RawMessage, len(value))
	copy(v, value)
	f.data[key] = v
	return f.save()
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return f.save()
}

// save rewrites the whole document. Callers must hold f.mu.
func (f *File) save() error {
	out, err := os.Create(f.path)
	if err != nil {
		return err
	}
	defer out.Close()
	return json.NewEncoder(out).Encode(f.data)
}
