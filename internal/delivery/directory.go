package delivery

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Directory is the union of the loaded regional pincode lists. It is safe for concurrent use
// and can be reloaded while serving.
type Directory struct {
	files  []string
	loader Loader
	logger zerolog.Logger
	sets   atomic.Pointer[[]Set]
}

// NewDirectory loads every file concurrently. Any failed file fails the whole load.
func NewDirectory(ctx context.Context, files []string, loader Loader, logger zerolog.Logger) (*Directory, error) {
	d := &Directory{
		files:  files,
		loader: loader,
		logger: logger.With().Str("component", "delivery-directory").Logger(),
	}
	if err := d.Reload(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-reads every file. On failure the previous lists stay in place.
func (d *Directory) Reload(ctx context.Context) error {
	sets := make([]Set, len(d.files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range d.files {
		g.Go(func() error {
			set, err := d.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load pincode file %s: %w", path, err)
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.logger.Error().Err(err).Msg("pincode directory load failed")
		return err
	}

	d.sets.Store(&sets)
	d.logger.Info().Int("files", len(sets)).Int("pincodes", d.Size()).Msg("pincode directory loaded")
	return nil
}

// Run reloads the directory every interval until ctx is done. Failed reloads are logged and the
// previous lists keep serving.
func (d *Directory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = d.Reload(ctx)
		}
	}
}

// Serviceable reports whether any regional list contains pincode.
func (d *Directory) Serviceable(pincode string) bool {
	if !validPincode(pincode) {
		return false
	}
	sets := d.sets.Load()
	if sets == nil {
		return false
	}
	for _, s := range *sets {
		if s.Contains(pincode) {
			return true
		}
	}
	return false
}

// Size is the total number of entries across lists. A pincode listed by two regions counts twice.
func (d *Directory) Size() int {
	sets := d.sets.Load()
	if sets == nil {
		return 0
	}
	n := 0
	for _, s := range *sets {
		n += s.Size()
	}
	return n
}
