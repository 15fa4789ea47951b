package imagesource

import (
	"context"

	"github.com/tauraamui/framebridge/pkg/capture"
	"github.com/tauraamui/framebridge/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

var (
	ErrInvalidState      = xerror.New("image source is in an invalid state for this operation")
	ErrUnsupportedSource = xerror.New("image source type is not supported")
)

// Source is the contract consumed by the vision pipeline. Callers poll
// IsPrepared and IsPlaying and sample CurrentTexture, which must not be
// mutated by the caller.
type Source interface {
	Type() Type
	TextureWidth() int
	TextureHeight() int
	SourceName() string
	SourceCandidateNames() []string
	AvailableResolutions() []capture.Resolution
	IsPrepared() bool
	IsPlaying() bool
	CurrentTexture() *videoframe.Buffer
	Play(context.Context) error
	Pause() error
	Resume(context.Context) error
	Stop() error
	SelectSource(int) error
}
