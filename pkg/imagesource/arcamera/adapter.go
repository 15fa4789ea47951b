package arcamera

import (
	"context"
	"image"
	"sync"

	"github.com/tauraamui/framebridge/pkg/capture"
	"github.com/tauraamui/framebridge/pkg/imagesource"
	"github.com/tauraamui/framebridge/pkg/log"
	"github.com/tauraamui/framebridge/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

const sourceName = "ARCamera"

var conversionParams = capture.ConversionParams{
	Format:         capture.FormatRGBA32,
	Transformation: capture.TransformMirrorY,
}

type State int

const (
	Uninitialized State = iota
	Prepared
	Playing
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Prepared:
		return "prepared"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

type Options struct {
	Title string
	// Target is matched against the session's offered configurations,
	// DefaultTargetResolution when zero.
	Target capture.Resolution
	// Fallback is negotiated when Target is not offered. When zero the
	// offered configuration closest to PreferableDefaultWidth is used.
	Fallback               capture.Resolution
	PreferableDefaultWidth int
}

type Stats struct {
	Converted uint64
	Skipped   uint64
	Failed    uint64
}

// Adapter publishes a capture session's frames as an RGBA8 texture,
// mirrored vertically, through the imagesource.Source contract.
type Adapter struct {
	mu          sync.Mutex
	opts        Options
	session     capture.Session
	state       State
	negotiated  capture.Resolution
	buffer      *videoframe.Buffer
	unsubscribe func()
	stats       Stats
}

var _ imagesource.Source = (*Adapter)(nil)

func New(session capture.Session, opts Options) *Adapter {
	if opts.Target == (capture.Resolution{}) {
		opts.Target = DefaultTargetResolution
	}
	if opts.PreferableDefaultWidth <= 0 {
		opts.PreferableDefaultWidth = DefaultPreferableWidth
	}
	a := &Adapter{opts: opts, state: Uninitialized}
	if session != nil {
		a.session = session
		a.state = Prepared
	}
	return a
}

// Attach hands the adapter its capture session, moving it from
// Uninitialized to Prepared.
func (a *Adapter) Attach(session capture.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if session == nil {
		return xerror.Errorf("%w: cannot attach nil capture session", imagesource.ErrInvalidState)
	}
	if a.state != Uninitialized {
		return a.invalidTransition("attach")
	}
	a.session = session
	a.state = Prepared
	return nil
}

func (a *Adapter) Title() string { return a.opts.Title }

func (a *Adapter) Type() imagesource.Type { return imagesource.ARCamera }

func (a *Adapter) SourceName() string { return sourceName }

func (a *Adapter) SourceCandidateNames() []string { return []string{sourceName} }

func (a *Adapter) AvailableResolutions() []capture.Resolution {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return append([]capture.Resolution{}, capture.DefaultResolutions...)
	}
	return a.session.Configurations()
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Adapter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Resolution is the configuration negotiated by the last Play.
func (a *Adapter) Resolution() capture.Resolution {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.negotiated
}

func (a *Adapter) IsPrepared() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

func (a *Adapter) IsPlaying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == Playing
}

func (a *Adapter) TextureWidth() int {
	if tex := a.CurrentTexture(); tex != nil {
		return tex.Dimensions().W
	}
	return 0
}

func (a *Adapter) TextureHeight() int {
	if tex := a.CurrentTexture(); tex != nil {
		return tex.Dimensions().H
	}
	return 0
}

// CurrentTexture returns the live buffer, nil until a frame has been
// converted into it.
func (a *Adapter) CurrentTexture() *videoframe.Buffer {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil || a.buffer == nil || !a.buffer.Written() {
		return nil
	}
	return a.buffer
}

// CopyTexture copies the latest converted frame out under the adapter
// lock along with its buffer generation.
func (a *Adapter) CopyTexture() (*image.RGBA, uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil || a.buffer == nil || !a.buffer.Written() {
		return nil, 0, false
	}
	src := a.buffer.Image()
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst, a.buffer.Generation(), true
}

func (a *Adapter) Play(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return xerror.Errorf("unable to play [%s]: %w", a.opts.Title, err)
	}

	switch a.state {
	case Playing:
		return nil
	case Prepared, Stopped:
	default:
		return a.invalidTransition("play")
	}

	res, err := a.negotiate()
	if err != nil {
		return err
	}

	if a.buffer == nil || a.buffer.Dimensions() != res.Dimensions() {
		buf, err := videoframe.NewBuffer(res.Width, res.Height)
		if err != nil {
			return xerror.Errorf("unable to allocate frame buffer for [%s]: %w", a.opts.Title, err)
		}
		a.buffer = buf
	}

	if a.unsubscribe == nil {
		a.unsubscribe = a.session.OnFrameReceived(a.onFrameReceived)
	}
	a.session.SetActive(true)
	a.state = Playing
	log.Info("Image source [%s] playing at %s", a.opts.Title, res)
	return nil
}

func (a *Adapter) negotiate() (capture.Resolution, error) {
	candidates := a.session.Configurations()
	fallback := a.opts.Fallback
	if fallback == (capture.Resolution{}) {
		if preferred, ok := PreferredDefault(candidates, a.opts.PreferableDefaultWidth); ok {
			fallback = preferred
		} else {
			fallback = a.opts.Target
		}
	}

	res := SelectResolution(candidates, a.opts.Target, fallback)
	if err := a.session.SetConfiguration(res); err != nil {
		return capture.Resolution{}, xerror.Errorf("unable to configure capture for [%s]: %w", a.opts.Title, err)
	}
	log.Debug("Camera configuration set for [%s]: %s", a.opts.Title, res)
	a.negotiated = res
	return res, nil
}

func (a *Adapter) Pause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Playing {
		return a.invalidTransition("pause")
	}
	a.session.SetActive(false)
	a.state = Paused
	log.Info("Image source [%s] paused", a.opts.Title)
	return nil
}

func (a *Adapter) Resume(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return xerror.Errorf("unable to resume [%s]: %w", a.opts.Title, err)
	}
	if a.state != Paused {
		return a.invalidTransition("resume")
	}
	a.session.SetActive(true)
	a.state = Playing
	log.Info("Image source [%s] resumed", a.opts.Title)
	return nil
}

// Stop deactivates the session and drops the frame buffer, a following
// Play negotiates and allocates afresh.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case Stopped:
		return nil
	case Uninitialized:
		return a.invalidTransition("stop")
	}

	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.session.SetActive(false)
	a.buffer = nil
	a.state = Stopped
	log.Info("Image source [%s] stopped", a.opts.Title)
	return nil
}

// SelectSource is a no-op, an AR camera has a single candidate.
func (a *Adapter) SelectSource(int) error { return nil }

// OnFrameAvailable converts the session's latest image into the frame
// buffer. No available image is not an error. The acquired image is
// released whether or not conversion succeeds.
func (a *Adapter) OnFrameAvailable() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != Playing || a.buffer == nil {
		return nil
	}

	acquired, err := capture.WithImage(a.session, func(img capture.Image) error {
		if err := a.buffer.Fits(img.Dimensions()); err != nil {
			return err
		}
		return img.Convert(conversionParams, a.buffer.Bytes())
	})
	if !acquired {
		a.stats.Skipped++
		return nil
	}
	if err != nil {
		a.stats.Failed++
		return xerror.Errorf("unable to convert frame for [%s]: %w", a.opts.Title, err)
	}

	a.buffer.MarkWritten()
	a.stats.Converted++
	return nil
}

func (a *Adapter) onFrameReceived() {
	if err := a.OnFrameAvailable(); err != nil {
		log.Error(err.Error())
	}
}

func (a *Adapter) invalidTransition(op string) error {
	return xerror.Errorf("%w: cannot %s [%s] while %s", imagesource.ErrInvalidState, op, a.opts.Title, a.state)
}
