package sftp

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/adrianliechti/devserve/pkg/fs"

	"github.com/pkg/sftp"
)

var (
	_ sftp.FileReader = (*handler)(nil)
	_ sftp.FileWriter = (*handler)(nil)
	_ sftp.FileCmder  = (*handler)(nil)
	_ sftp.FileLister = (*handler)(nil)

	_ sftp.ReadlinkFileLister = (*handler)(nil)
)

const (
	methodList  = "List"
	methodStat  = "Stat"
	methodLstat = "Lstat"
)

// handler serves a fs.Root read-only. Every write or mutating command is
// refused.
type handler struct {
	root *fs.Root
}

func (h *handler) resolve(name string) (string, error) {
	p, err := h.root.Resolve(name)

	if err != nil {
		return "", toStatus(err)
	}

	return p, nil
}

// Methods: Get
func (h *handler) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	p, err := h.resolve(r.Filepath)

	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)

	if err != nil {
		return nil, toStatus(err)
	}

	return f, nil
}

// Methods: Put, Open with write flags
func (h *handler) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	return nil, sftp.ErrSSHFxPermissionDenied
}

// Methods: Setstat, Rename, Rmdir, Mkdir, Link, Symlink, Remove
func (h *handler) Filecmd(r *sftp.Request) error {
	return sftp.ErrSSHFxPermissionDenied
}

// Methods: List, Stat, Lstat
func (h *handler) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	p, err := h.resolve(r.Filepath)

	if err != nil {
		return nil, err
	}

	switch r.Method {
	case methodList:
		entries, err := os.ReadDir(p)

		if err != nil {
			return nil, toStatus(err)
		}

		infos := make([]os.FileInfo, 0, len(entries))

		for _, entry := range entries {
			info, err := entry.Info()

			if err != nil {
				continue
			}

			infos = append(infos, info)
		}

		return listerat(infos), nil

	case methodStat, methodLstat:
		info, err := os.Stat(p)

		if err != nil {
			return nil, toStatus(err)
		}

		return listerat{info}, nil

	default:
		return nil, sftp.ErrSSHFxOpUnsupported
	}
}

// Readlink reports the target of a symlink as a path within the root.
// Links that lead outside the root are refused.
func (h *handler) Readlink(name string) (string, error) {
	dir, err := h.resolve(path.Dir(name))

	if err != nil {
		return "", err
	}

	info, err := os.Lstat(filepath.Join(dir, path.Base(name)))

	if err != nil {
		return "", toStatus(err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return "", sftp.ErrSSHFxFailure
	}

	target, err := h.resolve(name)

	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(h.root.Path(), target)

	if err != nil {
		return "", sftp.ErrSSHFxPermissionDenied
	}

	return "/" + filepath.ToSlash(rel), nil
}

func toStatus(err error) error {
	err = fs.Classify(err)

	switch {
	case errors.Is(err, fs.ErrForbiddenPath), errors.Is(err, os.ErrPermission):
		return sftp.ErrSSHFxPermissionDenied

	case errors.Is(err, fs.ErrNotFound):
		return sftp.ErrSSHFxNoSuchFile

	default:
		return err
	}
}

type listerat []os.FileInfo

func (f listerat) ListAt(ls []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(f)) {
		return 0, io.EOF
	}

	n := copy(ls, f[offset:])

	if n < len(ls) {
		return n, io.EOF
	}

	return n, nil
}
