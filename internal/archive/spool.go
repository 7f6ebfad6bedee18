package archive

import (
	"context"
	"path/filepath"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/filex"
	"github.com/fincoval/creditsync/internal/reconcile"
)

// Spool writes summaries below a local directory using the same layout as
// the bucket.
type Spool struct {
	dir string
}

func NewSpool(dir string) (*Spool, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &Spool{dir: abs}, nil
}

func (s *Spool) Dir() string { return s.dir }

func (s *Spool) Publish(_ context.Context, sum *reconcile.Summary) error {
	body, err := encode(sum)
	if err != nil {
		return err
	}
	p := filepath.Join(s.dir, filepath.FromSlash(Key("", sum)))
	if err := filex.WriteAtomic(p, body); err != nil {
		return common.StorageError(err)
	}
	return nil
}
