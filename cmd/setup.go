package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/facewatch/internal/camera"
	"github.com/kozaktomas/facewatch/internal/config"
	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/gallery/filestore"
	"github.com/kozaktomas/facewatch/internal/gallery/postgres"
	"github.com/kozaktomas/facewatch/internal/pipeline"
	"github.com/kozaktomas/facewatch/internal/stream"
	"github.com/kozaktomas/facewatch/internal/vision"
)

// openStore picks the gallery backend: PostgreSQL when DATABASE_URL is set,
// the local file store otherwise. A consistency error is a warning, not a
// refusal; the store stays usable with the intact entries.
func openStore(ctx context.Context, cfg *config.Config) (gallery.Store, error) {
	if cfg.Gallery.DatabaseURL != "" {
		pool, err := postgres.NewPool(&cfg.Gallery)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		fmt.Println("Using PostgreSQL gallery backend")
		return postgres.NewStore(pool), nil
	}

	store, err := filestore.Open(cfg.Gallery.DataDir)
	var cerr *gallery.ConsistencyError
	if errors.As(err, &cerr) {
		fmt.Printf("Warning: gallery data is inconsistent: %v\n", cerr)
		fmt.Println("Affected entries are excluded from matching; re-enroll them to repair")
	} else if err != nil {
		return nil, fmt.Errorf("opening gallery at %s: %w", cfg.Gallery.DataDir, err)
	}
	fmt.Printf("Using file gallery backend at %s\n", cfg.Gallery.DataDir)
	return store, nil
}

// newVisionClient builds the face service client from config.
func newVisionClient(cfg *config.Config) *vision.Client {
	return vision.NewClient(cfg.Vision.URL, cfg.Vision.Dim)
}

// newSharedCamera wraps the configured webcam indices in a refcounted handle.
// Nothing is opened until the first stream consumer arrives.
func newSharedCamera(cfg *config.Config) *camera.Shared {
	return camera.NewShared(func() (camera.Device, error) {
		return camera.Open(camera.OpenWebcam, cfg.Camera.Indices, cfg.Camera.Width, cfg.Camera.Height)
	})
}

// newStreamController wires the full live-recognition stack.
func newStreamController(cfg *config.Config, store gallery.Store) (*stream.Controller, error) {
	client := newVisionClient(cfg)
	processor, err := pipeline.NewProcessorWithScale(client, client, cfg.Stream.Downscale)
	if err != nil {
		return nil, fmt.Errorf("building frame processor: %w", err)
	}
	return stream.NewController(newSharedCamera(cfg), store, processor, cfg.Stream), nil
}
