package bridge

import (
	"context"

	"github.com/google/uuid"
	"github.com/tauraamui/framebridge/pkg/capture"
	"github.com/tauraamui/framebridge/pkg/configdef"
	"github.com/tauraamui/framebridge/pkg/imagesource"
	"github.com/tauraamui/framebridge/pkg/imagesource/arcamera"
	"github.com/tauraamui/framebridge/pkg/log"
	"github.com/tauraamui/xerror"
)

// SourceStatus is a point in time view of a connected image source.
type SourceStatus struct {
	UUID   string
	Title  string
	Type   string
	State  string
	Width  int
	Height int
	Frames uint64
}

type source struct {
	uuid             string
	snapshotLocation string
	session          capture.Session
	adapter          *arcamera.Adapter
}

func (s *source) status() SourceStatus {
	return SourceStatus{
		UUID:   s.uuid,
		Title:  s.adapter.Title(),
		Type:   s.adapter.Type().String(),
		State:  s.adapter.State().String(),
		Width:  s.adapter.TextureWidth(),
		Height: s.adapter.TextureHeight(),
		Frames: s.adapter.Stats().Converted,
	}
}

func (s *source) close() {
	if err := s.adapter.Stop(); err != nil {
		log.Debug("Unable to stop image source [%s]: %v", s.adapter.Title(), err)
	}
	if err := s.session.Close(); err != nil {
		log.Error("Unable to close capture session for [%s]: %v", s.adapter.Title(), err)
	}
}

var newSource = func(ctx context.Context, cfg configdef.Source, backend capture.Backend) (*source, error) {
	if t := cfg.SourceType(); t != imagesource.ARCamera {
		return nil, xerror.Errorf("%w: [%s] is of type %s", imagesource.ErrUnsupportedSource, cfg.Title, t)
	}

	if len(cfg.Backend) > 0 {
		backend = capture.Resolve(cfg.Backend)
	}

	session, err := backend.Open(ctx, cfg.Address)
	if err != nil {
		return nil, xerror.Errorf("unable to open capture session for [%s]: %w", cfg.Title, err)
	}

	opts := arcamera.Options{
		Title:                  cfg.Title,
		PreferableDefaultWidth: cfg.PreferableDefaultWidth,
	}
	if cfg.TargetWidth > 0 && cfg.TargetHeight > 0 {
		opts.Target = capture.Resolution{
			Width:     cfg.TargetWidth,
			Height:    cfg.TargetHeight,
			FrameRate: arcamera.DefaultTargetResolution.FrameRate,
		}
	}

	return &source{
		uuid:             uuid.NewString(),
		snapshotLocation: cfg.SnapshotLocation,
		session:          session,
		adapter:          arcamera.New(session, opts),
	}, nil
}
