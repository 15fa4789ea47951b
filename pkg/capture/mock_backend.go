package capture

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/tauraamui/framebridge/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var defaultMockResolution = Resolution{Width: 640, Height: 480, FrameRate: 30}

type mockBackend struct{}

func (b *mockBackend) Open(cancel context.Context, addr string) (Session, error) {
	select {
	case <-cancel.Done():
		return nil, xerror.New("capture open cancelled")
	default:
	}

	s := &mockSession{
		title:   addr,
		configs: DefaultResolutions,
		current: defaultMockResolution,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

var mockFrameInterval = func(fps int) time.Duration {
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

type mockSession struct {
	title      string
	mu         sync.Mutex
	configs    []Resolution
	current    Resolution
	active     bool
	closed     bool
	latest     *image.RGBA
	baseCanvas *image.RGBA
	listeners  frameListeners
	stop       chan struct{}
	done       chan struct{}
}

func (s *mockSession) pump() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-time.After(mockFrameInterval(s.CurrentConfiguration().FrameRate)):
			if s.render() {
				s.listeners.notify()
			}
		}
	}
}

func (s *mockSession) render() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.closed {
		return false
	}

	if s.baseCanvas == nil || !s.baseCanvas.Bounds().Eq(image.Rect(0, 0, s.current.Width, s.current.Height)) {
		s.baseCanvas = renderBaseFrameCanvas(s.current.Width, s.current.Height)
	}

	frame := cloneImage(s.baseCanvas)
	fontSize := math.Max(float64(s.current.Height)/10, 8)
	_ = drawText(frame, 5, s.current.Height/4, fontSize, "FB_OFFLINE_STREAM")
	_ = drawText(frame, 5, s.current.Height/2, fontSize, s.title)
	_ = drawText(frame, 5, s.current.Height*3/4, fontSize, time.Now().Format("2006-01-02 15:04:05.999"))
	s.latest = frame
	return true
}

func (s *mockSession) TryAcquireLatestImage() (Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || s.closed {
		return nil, false
	}
	img := &mockImage{img: s.latest}
	s.latest = nil
	return img, true
}

func (s *mockSession) Configurations() []Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Resolution{}, s.configs...)
}

func (s *mockSession) CurrentConfiguration() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *mockSession) SetConfiguration(r Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if !offers(s.configs, r) {
		return xerror.Errorf("%w: %s", ErrUnsupportedConfiguration, r)
	}
	s.current = r
	s.latest = nil
	return nil
}

func (s *mockSession) OnFrameReceived(f func()) func() {
	return s.listeners.add(f)
}

func (s *mockSession) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	if !active {
		s.latest = nil
	}
}

func (s *mockSession) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *mockSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.active = false
	s.latest = nil
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	s.listeners.clear()
	return nil
}

type mockImage struct {
	img    *image.RGBA
	closed bool
}

func (i *mockImage) Dimensions() videoframe.Dimensions {
	b := i.img.Bounds()
	return videoframe.Dimensions{W: b.Dx(), H: b.Dy()}
}

func (i *mockImage) Convert(params ConversionParams, dst []byte) error {
	if i.closed {
		return ErrImageClosed
	}
	return convertRGBA(i.img, params, dst)
}

func (i *mockImage) Close() {
	i.closed = true
	i.img = nil
}

func renderBaseFrameCanvas(w, h int) *image.RGBA {
	var hw, hh float64 = float64(w / 2), float64(h / 2)
	r := math.Min(hw, hh) * 0.66
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), r * 1.5}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), r * 1.5}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), r * 1.5}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetRGBA(x, y, color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			})
		}
	}
	return img
}

func cloneImage(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

var (
	parseFontOnce sync.Once
	parsedFont    *truetype.Font
	parseFontErr  error
)

func drawText(canvas *image.RGBA, x, y int, size float64, text string) error {
	parseFontOnce.Do(func() {
		parsedFont, parseFontErr = freetype.ParseFont(goregular.TTF)
	})
	if parseFontErr != nil {
		return parseFontErr
	}
	drawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			Hinting: font.HintingFull,
		}),
	}
	drawer.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	drawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	if math.Sqrt(dx*dx+dy*dy)/c.R > 1 {
		return 0
	}
	return 255
}
