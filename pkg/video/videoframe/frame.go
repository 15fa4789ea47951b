package videoframe

import (
	"image"
	"sync/atomic"

	"github.com/tauraamui/xerror"
)

// BytesPerPixel is the stride of a single RGBA8 pixel.
const BytesPerPixel = 4

var (
	ErrInvalidDimensions = xerror.New("frame dimensions must be positive")
	ErrDimensionMismatch = xerror.New("source dimensions do not match frame buffer")
)

type Dimensions struct {
	W, H int
}

func (d Dimensions) Area() int { return d.W * d.H }

// Buffer is a fixed size RGBA8 pixel store. Its dimensions are set once
// at creation and the backing slice is reused for every write.
type Buffer struct {
	dimensions Dimensions
	pix        []byte
	generation uint64
}

func NewBuffer(w, h int) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, xerror.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	return &Buffer{
		dimensions: Dimensions{W: w, H: h},
		pix:        make([]byte, w*h*BytesPerPixel),
	}, nil
}

func (b *Buffer) Dimensions() Dimensions {
	return b.dimensions
}

// Bytes returns the live backing slice, writes to it are visible to
// every reader of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.pix
}

func (b *Buffer) Len() int {
	return len(b.pix)
}

// Fits reports an error when a source of the given dimensions cannot be
// written into the buffer without truncating or padding.
func (b *Buffer) Fits(src Dimensions) error {
	if src != b.dimensions {
		return xerror.Errorf(
			"%w: source %dx%d, buffer %dx%d",
			ErrDimensionMismatch, src.W, src.H, b.dimensions.W, b.dimensions.H,
		)
	}
	return nil
}

// MarkWritten publishes a completed write.
func (b *Buffer) MarkWritten() uint64 {
	return atomic.AddUint64(&b.generation, 1)
}

func (b *Buffer) Generation() uint64 {
	return atomic.LoadUint64(&b.generation)
}

func (b *Buffer) Written() bool {
	return b.Generation() > 0
}

// Image wraps the backing slice without copying it.
func (b *Buffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.pix,
		Stride: b.dimensions.W * BytesPerPixel,
		Rect:   image.Rect(0, 0, b.dimensions.W, b.dimensions.H),
	}
}
