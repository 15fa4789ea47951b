package capture

import (
	"image"
	"time"
)

var ConvertRGBA = convertRGBA
var FlipCode = flipCode

func OverloadMockFrameInterval(overload func(int) time.Duration) func() {
	mockFrameIntervalRef := mockFrameInterval
	mockFrameInterval = overload
	return func() { mockFrameInterval = mockFrameIntervalRef }
}

func NewRGBAImage(img *image.RGBA) Image {
	return &mockImage{img: img}
}
