package transfer

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/namesdb/namesdb/internal/db/store"
)

const (
	stagedSuffix = ".import"
	backupSuffix = ".bak"
)

// Picker lets the user choose a file. Closing the picker without a choice returns ErrCancelled.
type Picker interface {
	Pick(ctx context.Context) (io.ReadCloser, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) (io.ReadCloser, error)

// Pick implements Picker.
func (f PickerFunc) Pick(ctx context.Context) (io.ReadCloser, error) {
	return f(ctx)
}

// FilePicker picks the file at Path. An empty Path is a cancelled pick.
type FilePicker struct {
	Path string
}

// Pick implements Picker.
func (p FilePicker) Pick(_ context.Context) (io.ReadCloser, error) {
	if p.Path == "" {
		return nil, ErrCancelled
	}

	f, err := os.Open(p.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", p.Path)
	}

	return f, nil
}

// Import replaces the database file of current with a file from p and returns
// the handle opened on the replaced file. current is closed on success.
//
// A cancelled pick returns (nil, nil) and leaves current untouched. The chosen
// file is validated before the live file is replaced; if the new file can not
// be opened the previous file is restored and a handle on it is returned with the error.
func (g *Gateway) Import(ctx context.Context, current *store.Store, p Picker) (*store.Store, error) {
	defer g.setState(StateIdle)

	if current == nil {
		return nil, g.fail(OpImport, store.ErrClosed)
	}

	g.setState(StatePickerOpen)

	src, err := p.Pick(ctx)
	if errors.Is(err, ErrCancelled) || (err == nil && src == nil) {
		g.setState(StateCancelled)
		log.Debug().Msg("import cancelled")

		return nil, nil //nolint:nilnil // cancelling is not an error and yields no handle
	}

	if err != nil {
		return nil, g.fail(OpImport, errors.Wrap(err, "failed to pick file"))
	}

	defer src.Close() //nolint:errcheck

	g.setState(StateFileChosen)

	dbPath := current.Path()

	g.setState(StateDirectoryEnsuring)

	if err = os.MkdirAll(filepath.Dir(dbPath), dirPerm); err != nil {
		return nil, g.fail(OpImport, errors.Wrap(err, "failed to create database directory"))
	}

	g.setState(StateReading)

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, g.fail(OpImport, errors.Wrap(err, "failed to read chosen file"))
	}

	if err = ctx.Err(); err != nil {
		return nil, g.fail(OpImport, errors.Wrap(err, "import aborted"))
	}

	g.setState(StateWriting)

	if err = stage(dbPath, content); err != nil {
		return nil, g.fail(OpImport, err)
	}

	if err = current.Close(); err != nil {
		_ = os.Remove(dbPath + stagedSuffix)
		return nil, g.fail(OpImport, errors.Wrap(err, "failed to close current database"))
	}

	if err = swapIn(dbPath); err != nil {
		restored, rerr := reopen(current)

		return restored, g.fail(OpImport, errors.Wrap(err, "failed to replace database file"+reopenNote(rerr)))
	}

	g.setState(StateStoreReopening)

	next, err := current.Reconnect()
	if err != nil {
		restored, rerr := restore(current, dbPath)

		return restored, g.fail(OpImport, errors.Wrap(err, "failed to open imported database"+reopenNote(rerr)))
	}

	_ = os.Remove(dbPath + backupSuffix)

	transfers.WithLabelValues(OpImport, "ok").Inc()
	log.Info().Str("path", dbPath).Int("bytes", len(content)).Msg("database imported")

	return next, nil
}

// stage writes content next to dbPath and checks it is a names database.
func stage(dbPath string, content []byte) error {
	staged := dbPath + stagedSuffix

	if err := os.WriteFile(staged, content, filePerm); err != nil {
		return errors.Wrap(err, "failed to write imported file")
	}

	if err := store.Validate(staged); err != nil {
		_ = os.Remove(staged)
		return err //nolint:wrapcheck
	}

	return nil
}

// swapIn moves the live file to its backup and the staged file into place.
func swapIn(dbPath string) error {
	if err := os.Rename(dbPath, dbPath+backupSuffix); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(dbPath + stagedSuffix)
		return err //nolint:wrapcheck
	}

	if err := os.Rename(dbPath+stagedSuffix, dbPath); err != nil {
		_ = os.Rename(dbPath+backupSuffix, dbPath)
		return err //nolint:wrapcheck
	}

	return nil
}

// restore puts the backup back in place and reopens it.
func restore(current *store.Store, dbPath string) (*store.Store, error) {
	if err := os.Rename(dbPath+backupSuffix, dbPath); err != nil && !os.IsNotExist(err) {
		return nil, err //nolint:wrapcheck
	}

	return reopen(current)
}

func reopen(current *store.Store) (*store.Store, error) {
	restored, err := current.Reconnect()
	if err != nil {
		log.Error().Err(err).Str("path", current.Path()).Msg("previous database could not be reopened")
		return nil, err //nolint:wrapcheck
	}

	return restored, nil
}

func reopenNote(err error) string {
	if err != nil {
		return " (previous database could not be reopened: " + err.Error() + ")"
	}

	return " (previous database restored)"
}
