package fs

import (
	"errors"
	"io/fs"
	"syscall"
)

var (
	ErrForbiddenPath = errors.New("path escapes served root")
	ErrNotFound      = errors.New("file not found")
)

// Classify maps file system errors onto ErrNotFound. Anything else is
// returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return errors.Join(ErrNotFound, err)

	default:
		return err
	}
}
