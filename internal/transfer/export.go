package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Source describes the file being exported.
type Source struct {
	Path     string // database file in private storage
	FileName string // name the file is exported under
	MimeType string
}

// Exporter sends a database file somewhere and returns where it went.
type Exporter interface {
	Export(ctx context.Context, src Source) (string, error)
}

// DirectoryPermissions grants one-time write access to a directory chosen by the user.
type DirectoryPermissions interface {
	RequestDirectory(ctx context.Context) (dir string, granted bool, err error)
}

// PermissionsFunc adapts a function to DirectoryPermissions.
type PermissionsFunc func(ctx context.Context) (string, bool, error)

// RequestDirectory implements DirectoryPermissions.
func (f PermissionsFunc) RequestDirectory(ctx context.Context) (string, bool, error) {
	return f(ctx)
}

// StaticDirectory grants Dir when it is an existing directory and denies otherwise.
type StaticDirectory struct {
	Dir string
}

// RequestDirectory implements DirectoryPermissions.
func (d StaticDirectory) RequestDirectory(_ context.Context) (string, bool, error) {
	if d.Dir == "" {
		return "", false, nil
	}

	info, err := os.Stat(d.Dir)
	if err != nil || !info.IsDir() {
		return "", false, nil //nolint:nilerr // a missing directory is a refused grant
	}

	return d.Dir, true, nil
}

// DirectoryExporter writes a copy of the database into a directory the user grants.
type DirectoryExporter struct {
	Permissions DirectoryPermissions
}

// Export implements Exporter. A refused grant writes nothing and returns ErrPermissionDenied.
func (e DirectoryExporter) Export(ctx context.Context, src Source) (string, error) {
	dir, granted, err := e.Permissions.RequestDirectory(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to request directory permission")
	}

	if !granted {
		log.Info().Msg("Permission not granted")
		return "", ErrPermissionDenied
	}

	content, err := os.ReadFile(src.Path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", src.Path)
	}

	f, dest, err := createFile(dir, src.FileName)
	if err != nil {
		return "", err
	}

	if _, err = f.Write(content); err != nil {
		_ = f.Close()
		return "", errors.Wrapf(err, "failed to write %s", dest)
	}

	if err = f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close %s", dest)
	}

	return dest, nil
}

// maxNameAttempts bounds the "name (n).ext" search of createFile.
const maxNameAttempts = 100

// createFile creates a new file named name in dir. An existing file is never
// overwritten: the name gets a " (n)" suffix instead, like a document provider does.
func createFile(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := range maxNameAttempts {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}

		dest := filepath.Join(dir, candidate)

		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err == nil {
			return f, dest, nil
		}

		if !os.IsExist(err) {
			return nil, "", errors.Wrapf(err, "failed to create %s", dest)
		}
	}

	return nil, "", errors.Errorf("no free file name for %s in %s", name, dir)
}

// Sharer hands a file to the platform share mechanism.
type Sharer interface {
	Share(ctx context.Context, src Source) error
}

// SharerFunc adapts a function to Sharer.
type SharerFunc func(ctx context.Context, src Source) error

// Share implements Sharer.
func (f SharerFunc) Share(ctx context.Context, src Source) error {
	return f(ctx, src)
}

// ShareExporter hands the database file path to a Sharer without copying it.
type ShareExporter struct {
	Sharer Sharer
}

// Export implements Exporter.
func (e ShareExporter) Export(ctx context.Context, src Source) (string, error) {
	if err := e.Sharer.Share(ctx, src); err != nil {
		return "", errors.Wrap(err, "failed to share database")
	}

	return src.Path, nil
}
