package capture

import (
	"fmt"

	"github.com/tauraamui/framebridge/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

var (
	ErrInsufficientBuffer       = xerror.New("destination buffer is too small for converted image")
	ErrUnsupportedFormat        = xerror.New("unsupported conversion format")
	ErrImageClosed              = xerror.New("image handle already released")
	ErrUnsupportedConfiguration = xerror.New("capture configuration not offered by session")
	ErrSessionClosed            = xerror.New("capture session is closed")
)

type Resolution struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	FrameRate int `json:"frame_rate"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d@%d", r.Width, r.Height, r.FrameRate)
}

func (r Resolution) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: r.Width, H: r.Height}
}

// SameSize ignores frame rate.
func (r Resolution) SameSize(o Resolution) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// DefaultResolutions is offered by sessions which cannot enumerate their
// own modes.
var DefaultResolutions = []Resolution{
	{Width: 176, Height: 144, FrameRate: 30},
	{Width: 320, Height: 240, FrameRate: 30},
	{Width: 424, Height: 240, FrameRate: 30},
	{Width: 640, Height: 480, FrameRate: 30},
	{Width: 848, Height: 480, FrameRate: 30},
	{Width: 960, Height: 540, FrameRate: 30},
	{Width: 1280, Height: 960, FrameRate: 30},
	{Width: 1600, Height: 896, FrameRate: 30},
	{Width: 1920, Height: 1080, FrameRate: 30},
}

type Format int

const (
	FormatRGBA32 Format = iota
)

type Transformation uint8

const (
	TransformNone Transformation = 0
	// TransformMirrorX reverses the order of pixels within each row.
	TransformMirrorX Transformation = 1 << 0
	// TransformMirrorY reverses the order of rows.
	TransformMirrorY Transformation = 1 << 1
)

func (t Transformation) Has(o Transformation) bool { return t&o == o }

type ConversionParams struct {
	Format         Format
	Transformation Transformation
}

// Image is a native frame handle owned by the session it was acquired
// from. It must be released with Close exactly once.
type Image interface {
	Dimensions() videoframe.Dimensions
	Convert(ConversionParams, []byte) error
	Close()
}

type Session interface {
	TryAcquireLatestImage() (Image, bool)
	Configurations() []Resolution
	CurrentConfiguration() Resolution
	SetConfiguration(Resolution) error
	OnFrameReceived(func()) (unsubscribe func())
	SetActive(bool)
	IsActive() bool
	Close() error
}

// WithImage acquires the session's latest image and hands it to fn.
// The image is released on every return path, panics included. When no
// image is available fn is not called and acquired is false.
func WithImage(session Session, fn func(Image) error) (acquired bool, err error) {
	img, ok := session.TryAcquireLatestImage()
	if !ok || img == nil {
		return false, nil
	}
	defer img.Close()
	return true, fn(img)
}

// RequiredLen is the destination length a conversion of the given
// dimensions needs.
func RequiredLen(format Format, dims videoframe.Dimensions) (int, error) {
	switch format {
	case FormatRGBA32:
		return dims.Area() * videoframe.BytesPerPixel, nil
	default:
		return 0, xerror.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
}

func checkConversion(params ConversionParams, dims videoframe.Dimensions, dst []byte) (int, error) {
	need, err := RequiredLen(params.Format, dims)
	if err != nil {
		return 0, err
	}
	if len(dst) < need {
		return 0, xerror.Errorf("%w: need %d bytes, have %d", ErrInsufficientBuffer, need, len(dst))
	}
	return need, nil
}

func offers(configs []Resolution, r Resolution) bool {
	for _, c := range configs {
		if c == r {
			return true
		}
	}
	return false
}
