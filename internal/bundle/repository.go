package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrBundleNotFound = errors.New("bundle not found")

// Repository stores bundles by name.
type Repository interface {
	// Save writes the bundle, replacing any bundle with the same name.
	Save(ctx context.Context, name string, bundle *Bundle) error

	// Get reads a bundle, returning [ErrBundleNotFound] when it does not exist.
	Get(ctx context.Context, name string) (*Bundle, error)

	// Exists reports whether a bundle with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// FSRepository keeps bundles as tarballs in a local directory.
// Copier is implemented by the repositories able to duplicate a stored bundle without
// downloading it.
type Copier interface {
	CopyBundle(ctx context.Context, srcName, destName string) error
}

type FSRepository struct {
	Dir string
}

func NewFileSystemRepository(dir string) *FSRepository {
	return &FSRepository{Dir: dir}
}

// Get implements [Repository].
func (f *FSRepository) Get(_ context.Context, name string) (*Bundle, error) {
	reader, err := os.Open(filepath.Join(f.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
	} else if err != nil {
		return nil, err
	}
	defer reader.Close()
	return NewFromArchive(reader)
}

// Save implements [Repository].
func (f *FSRepository) Save(_ context.Context, name string, bundle *Bundle) error {
	w, err := os.Create(filepath.Join(f.Dir, name))
	if err != nil {
		return err
	}
	defer w.Close()
	return bundle.Write(w)
}

// Exists implements [Repository].
func (f *FSRepository) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(f.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

var _ Repository = &FSRepository{}
