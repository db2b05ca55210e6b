package static

import (
	"errors"

	"github.com/adrianliechti/devserve/pkg/fs"
)

var (
	ErrForbiddenPath   = fs.ErrForbiddenPath
	ErrNotFound        = fs.ErrNotFound
	ErrListingDisabled = errors.New("directory listing disabled")
)
