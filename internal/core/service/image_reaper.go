package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/ports"
	"github.com/storefront/catalog-api/internal/pkg/metrics"
)

// ReaperConfig controls the orphan image reaper.
type ReaperConfig struct {
	Interval time.Duration
	// GracePeriod protects files younger than this from deletion, so uploads
	// whose product write is still in flight are never reaped.
	GracePeriod time.Duration
}

// ReapResult summarises one reaper pass.
type ReapResult struct {
	Scanned  int
	Deleted  int
	Errors   int
	Duration time.Duration
}

// ImageReaper deletes stored images that no live product references.
type ImageReaper struct {
	repo  ports.ProductRepository
	store ports.ImageStore
	cfg   ReaperConfig
	log   zerolog.Logger
	now   func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewImageReaper(repo ports.ProductRepository, store ports.ImageStore, cfg ReaperConfig, log zerolog.Logger) *ImageReaper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &ImageReaper{
		repo:  repo,
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "image_reaper").Logger(),
		now:   time.Now,
	}
}

// Start runs a pass immediately and then every Interval until Stop.
func (r *ImageReaper) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	r.log.Info().Dur("interval", r.cfg.Interval).Dur("grace_period", r.cfg.GracePeriod).Msg("image reaper started")
	go r.loop(r.stop, r.done)
}

// Stop halts the scheduler and waits for an in-flight pass to finish.
func (r *ImageReaper) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stop, done := r.stop, r.done
	r.mu.Unlock()

	close(stop)
	<-done
	r.log.Info().Msg("image reaper stopped")
}

func (r *ImageReaper) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-stop:
			return
		}
	}
}

// RunOnce performs a single pass.
func (r *ImageReaper) RunOnce(ctx context.Context) (res ReapResult) {
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		metrics.ReaperRunDuration.Observe(res.Duration.Seconds())
	}()

	stored, err := r.store.List(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("list stored images failed")
		res.Errors++
		return res
	}
	res.Scanned = len(stored)

	// References are loaded after the listing: a file saved and attached in
	// between is either too young or already referenced.
	held, err := r.repo.ReferencedImages(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("load image references failed")
		res.Errors++
		return res
	}

	cutoff := r.now().Add(-r.cfg.GracePeriod)
	for _, img := range stored {
		if ctx.Err() != nil {
			break
		}
		if _, ok := held[img.Ref]; ok || img.ModTime.After(cutoff) {
			continue
		}
		if err := r.store.Delete(ctx, img.Ref); err != nil {
			metrics.ImageDeletionsTotal.WithLabelValues("reap", "error").Inc()
			r.log.Error().Err(err).Str("path", img.Ref).Msg("orphan image delete failed")
			res.Errors++
			continue
		}
		metrics.ImageDeletionsTotal.WithLabelValues("reap", "ok").Inc()
		r.log.Info().Str("path", img.Ref).Int64("bytes", img.Size).Msg("orphan image reaped")
		res.Deleted++
	}

	r.log.Debug().Int("scanned", res.Scanned).Int("deleted", res.Deleted).Int("errors", res.Errors).Msg("image reaper pass finished")
	return res
}
