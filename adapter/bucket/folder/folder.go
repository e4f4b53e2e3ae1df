package folder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/finneas-io/edgar/adapter/bucket"
)

type folder struct {
	path string
}

func New(path string) (*folder, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	return &folder{path: path}, nil
}

func (f *folder) GetObject(key string) ([]byte, error) {
	data, err := os.ReadFile(f.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", bucket.ErrNotFound, key)
	}
	return data, err
}

// PutObject writes through a temporary file so readers never see a partial
// object.
func (f *folder) PutObject(key string, data []byte) error {
	tmp, err := os.CreateTemp(f.path, ".put-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.file(key))
}

func (f *folder) DeleteObject(key string) error {
	err := os.Remove(f.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *folder) file(key string) string {
	return filepath.Join(f.path, filepath.Base(key))
}
