package usage

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

// ErrNotExist is returned by an ObjectStore when the requested object has never been written.
var ErrNotExist = errors.New("object does not exist")

// ObjectStore reads and overwrites whole objects by key. Put replaces the
// object in a single operation from the caller's point of view.
type ObjectStore interface {
	// Get returns the object stored under key, or ErrNotExist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the object stored under key.
	Put(ctx context.Context, key string, data []byte) error

	// Location is a human readable address of key, used in logs and errors.
	Location(key string) string
}

var (
	// FileStoreDirPerms are the permissions directories holding tables are created with.
	FileStoreDirPerms os.FileMode = 0755
	// FileStorePerms are the permissions table files are created with.
	FileStorePerms os.FileMode = 0644
)

// NewFileStore creates a store which keeps objects as files below dir.
func NewFileStore(dir string) (FileStore, error) {
	dir = filepath.Clean(dir)
	if file, err := os.Stat(dir); err != nil {
		// don't throw error if just doesn't exist
		if !os.IsNotExist(err) {
			return FileStore{}, fmt.Errorf("could not access path '%s': %w", dir, err)
		}

		if err = os.MkdirAll(dir, FileStoreDirPerms); err != nil {
			return FileStore{}, fmt.Errorf("could not create directory '%s': %w", dir, err)
		}
	} else if !file.IsDir() {
		return FileStore{}, fmt.Errorf("the path '%s' is a file", dir)
	}

	return FileStore{
		directory: dir,
	}, nil
}

// FileStore is a simple implementation of ObjectStore which writes files to disk.
type FileStore struct {
	directory string
}

// FileStore must implement the ObjectStore interface
var _ ObjectStore = FileStore{}

func (f FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := ioutil.ReadFile(f.Path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", f.Path(key), err)
	}
	return data, nil
}

// Put writes to a temporary file next to the target and renames it into place.
func (f FileStore) Put(_ context.Context, key string, data []byte) error {
	path := f.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), FileStoreDirPerms); err != nil {
		return fmt.Errorf("could not create directory for '%s': %w", path, err)
	}

	tmp, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file for '%s': %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write '%s': %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close '%s': %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), FileStorePerms); err != nil {
		return fmt.Errorf("failed to set permissions on '%s': %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move table into place at '%s': %w", path, err)
	}
	return nil
}

func (f FileStore) Location(key string) string {
	return f.Path(key)
}

// Path returns the path where the object for key is stored.
func (f FileStore) Path(key string) string {
	return filepath.Join(f.directory, filepath.FromSlash(key))
}
