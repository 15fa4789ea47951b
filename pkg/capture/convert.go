package capture

import (
	"image"

	"github.com/tauraamui/framebridge/pkg/video/videoframe"
)

// convertRGBA writes src into dst as tightly packed RGBA8 rows applying
// the requested mirror transformations.
func convertRGBA(src *image.RGBA, params ConversionParams, dst []byte) error {
	b := src.Bounds()
	dims := videoframe.Dimensions{W: b.Dx(), H: b.Dy()}
	if _, err := checkConversion(params, dims, dst); err != nil {
		return err
	}

	rowLen := dims.W * videoframe.BytesPerPixel
	mirrorX := params.Transformation.Has(TransformMirrorX)
	mirrorY := params.Transformation.Has(TransformMirrorY)

	for y := 0; y < dims.H; y++ {
		srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
		srcRow := src.Pix[srcOff : srcOff+rowLen]

		dy := y
		if mirrorY {
			dy = dims.H - 1 - y
		}
		dstRow := dst[dy*rowLen : dy*rowLen+rowLen]

		if !mirrorX {
			copy(dstRow, srcRow)
			continue
		}
		for x := 0; x < dims.W; x++ {
			s := x * videoframe.BytesPerPixel
			d := (dims.W - 1 - x) * videoframe.BytesPerPixel
			copy(dstRow[d:d+videoframe.BytesPerPixel], srcRow[s:s+videoframe.BytesPerPixel])
		}
	}
	return nil
}
