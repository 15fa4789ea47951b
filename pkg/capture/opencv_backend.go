package capture

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/tauraamui/framebridge/pkg/log"
	"github.com/tauraamui/framebridge/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type openCVBackend struct{}

func (b *openCVBackend) Open(cancel context.Context, addr string) (Session, error) {
	vc, err := openWithCancel(cancel, addr)
	if err != nil {
		return nil, err
	}

	s := &openCVSession{
		addr:    addr,
		vc:      vc,
		configs: DefaultResolutions,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.current = Resolution{
		Width:     int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:    int(vc.Get(gocv.VideoCaptureFrameHeight)),
		FrameRate: int(vc.Get(gocv.VideoCaptureFPS)),
	}
	go s.read()
	return s, nil
}

type openVideoCaptureResult struct {
	vc  *gocv.VideoCapture
	err error
}

func openWithCancel(cancel context.Context, addr string) (*gocv.VideoCapture, error) {
	result := make(chan openVideoCaptureResult, 1)
	go func() {
		vc, err := openVideoCapture(addr)
		result <- openVideoCaptureResult{vc: vc, err: err}
	}()

	select {
	case r := <-result:
		if r.err != nil {
			return nil, xerror.Errorf("unable to open capture device [%s]: %w", addr, r.err)
		}
		return r.vc, nil
	case <-cancel.Done():
		go func() {
			if r := <-result; r.vc != nil {
				r.vc.Close()
			}
		}()
		return nil, xerror.New("capture open cancelled")
	}
}

// device addresses which parse as integers are camera indexes, anything
// else is handed to OpenCV as a file or stream URL
var openVideoCapture = func(addr string) (*gocv.VideoCapture, error) {
	if id, err := strconv.Atoi(addr); err == nil {
		return gocv.OpenVideoCapture(id)
	}
	return gocv.OpenVideoCapture(addr)
}

var readFromVideoCapture = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

const readRetryInterval = 10 * time.Millisecond

type openCVSession struct {
	addr      string
	vcMu      sync.Mutex
	vc        *gocv.VideoCapture
	mu        sync.Mutex
	configs   []Resolution
	current   Resolution
	active    bool
	closed    bool
	latest    *gocv.Mat
	listeners frameListeners
	stop      chan struct{}
	done      chan struct{}
}

func (s *openCVSession) read() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		mat := gocv.NewMat()
		s.vcMu.Lock()
		ok := readFromVideoCapture(s.vc, &mat)
		s.vcMu.Unlock()
		if !ok || mat.Empty() {
			mat.Close()
			time.Sleep(readRetryInterval)
			continue
		}

		if !s.publish(&mat) {
			mat.Close()
			continue
		}
		s.listeners.notify()
	}
}

// publish swaps in the newest frame, dropping any frame nobody acquired.
func (s *openCVSession) publish(mat *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.closed {
		return false
	}
	if s.latest != nil {
		s.latest.Close()
	}
	s.latest = mat
	return true
}

func (s *openCVSession) TryAcquireLatestImage() (Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || s.closed {
		return nil, false
	}
	img := &openCVImage{mat: s.latest}
	s.latest = nil
	return img, true
}

func (s *openCVSession) Configurations() []Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Resolution{}, s.configs...)
}

func (s *openCVSession) CurrentConfiguration() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *openCVSession) SetConfiguration(r Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if !offers(s.configs, r) {
		return xerror.Errorf("%w: %s", ErrUnsupportedConfiguration, r)
	}
	s.vcMu.Lock()
	s.vc.Set(gocv.VideoCaptureFrameWidth, float64(r.Width))
	s.vc.Set(gocv.VideoCaptureFrameHeight, float64(r.Height))
	s.vc.Set(gocv.VideoCaptureFPS, float64(r.FrameRate))
	s.vcMu.Unlock()
	s.current = r
	log.Debug("Capture device [%s] configured to %s", s.addr, r)
	return nil
}

func (s *openCVSession) OnFrameReceived(f func()) func() {
	return s.listeners.add(f)
}

func (s *openCVSession) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	if !active && s.latest != nil {
		s.latest.Close()
		s.latest = nil
	}
}

func (s *openCVSession) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *openCVSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.active = false
	if s.latest != nil {
		s.latest.Close()
		s.latest = nil
	}
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	s.listeners.clear()
	return s.vc.Close()
}

type openCVImage struct {
	mat    *gocv.Mat
	closed bool
}

func (i *openCVImage) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: i.mat.Cols(), H: i.mat.Rows()}
}

func (i *openCVImage) Convert(params ConversionParams, dst []byte) error {
	if i.closed {
		return ErrImageClosed
	}
	need, err := checkConversion(params, i.Dimensions(), dst)
	if err != nil {
		return err
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(*i.mat, &rgba, toRGBACode(i.mat.Channels()))

	if code, ok := flipCode(params.Transformation); ok {
		gocv.Flip(rgba, &rgba, code)
	}

	data, err := rgba.DataPtrUint8()
	if err != nil {
		return xerror.Errorf("unable to access converted image data: %w", err)
	}
	copy(dst[:need], data)
	return nil
}

func (i *openCVImage) Close() {
	if !i.closed {
		i.mat.Close()
		i.closed = true
	}
}

func toRGBACode(channels int) gocv.ColorConversionCode {
	switch channels {
	case 1:
		return gocv.ColorGrayToBGRA
	case 4:
		return gocv.ColorBGRAToRGBA
	default:
		return gocv.ColorBGRToRGBA
	}
}

// flipCode maps a transformation onto OpenCV's flip codes, where 0 flips
// rows, 1 flips columns and -1 flips both.
func flipCode(t Transformation) (int, bool) {
	switch {
	case t.Has(TransformMirrorX | TransformMirrorY):
		return -1, true
	case t.Has(TransformMirrorY):
		return 0, true
	case t.Has(TransformMirrorX):
		return 1, true
	default:
		return 0, false
	}
}
