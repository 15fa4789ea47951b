package arcamera

import "github.com/tauraamui/framebridge/pkg/capture"

var DefaultTargetResolution = capture.Resolution{Width: 640, Height: 480, FrameRate: 30}

// DefaultPreferableWidth picks the fallback configuration when the target
// is not offered, the candidate whose width is closest wins.
const DefaultPreferableWidth = 1280

// SelectResolution returns the first candidate matching the target's
// width and height, in the order the session offered them. Frame rate is
// ignored for matching.
func SelectResolution(candidates []capture.Resolution, target, fallback capture.Resolution) capture.Resolution {
	for _, c := range candidates {
		if c.SameSize(target) {
			return c
		}
	}
	return fallback
}

// PreferredDefault returns the candidate whose width is closest to
// preferableWidth, earlier candidates win ties.
func PreferredDefault(candidates []capture.Resolution, preferableWidth int) (capture.Resolution, bool) {
	if len(candidates) == 0 {
		return capture.Resolution{}, false
	}

	best := candidates[0]
	bestDiff := absDiff(best.Width, preferableWidth)
	for _, c := range candidates[1:] {
		if d := absDiff(c.Width, preferableWidth); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best, true
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
