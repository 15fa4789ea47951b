package arcamera_test

import (
	"errors"
	"sync"

	"github.com/tauraamui/framebridge/pkg/capture"
	"github.com/tauraamui/framebridge/pkg/video/videoframe"
)

type mockImage struct {
	session    *mockSession
	dimensions videoframe.Dimensions
	fill       byte
	convertErr error
}

func (m *mockImage) Dimensions() videoframe.Dimensions {
	return m.dimensions
}

func (m *mockImage) Convert(params capture.ConversionParams, dst []byte) error {
	m.session.lastParams = params
	if m.convertErr != nil {
		return m.convertErr
	}
	need := m.dimensions.W * m.dimensions.H * 4
	if len(dst) < need {
		return capture.ErrInsufficientBuffer
	}
	for i := 0; i < need; i++ {
		dst[i] = m.fill
	}
	return nil
}

func (m *mockImage) Close() {
	m.session.releaseCount++
}

type mockSession struct {
	mu             sync.Mutex
	configs        []capture.Resolution
	current        capture.Resolution
	setConfigErr   error
	active         bool
	pending        []*mockImage
	acquireCount   int
	releaseCount   int
	lastParams     capture.ConversionParams
	listeners      []func()
	unsubscribed   int
	setActiveCalls []bool
	closeCount     int
}

func newMockSession(configs ...capture.Resolution) *mockSession {
	if len(configs) == 0 {
		configs = capture.DefaultResolutions
	}
	return &mockSession{configs: configs}
}

func (m *mockSession) queueFrame(w, h int, fill byte) *mockImage {
	img := &mockImage{session: m, dimensions: videoframe.Dimensions{W: w, H: h}, fill: fill}
	m.pending = append(m.pending, img)
	return img
}

func (m *mockSession) queueFailingFrame(w, h int) {
	img := m.queueFrame(w, h, 0)
	img.convertErr = errors.New("native conversion failure")
}

func (m *mockSession) TryAcquireLatestImage() (capture.Image, bool) {
	if len(m.pending) == 0 {
		return nil, false
	}
	img := m.pending[len(m.pending)-1]
	m.pending = nil
	m.acquireCount++
	return img, true
}

func (m *mockSession) Configurations() []capture.Resolution {
	return m.configs
}

func (m *mockSession) CurrentConfiguration() capture.Resolution {
	return m.current
}

func (m *mockSession) SetConfiguration(r capture.Resolution) error {
	if m.setConfigErr != nil {
		return m.setConfigErr
	}
	m.current = r
	return nil
}

func (m *mockSession) OnFrameReceived(f func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, f)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.listeners = nil
		m.unsubscribed++
	}
}

func (m *mockSession) deliver() {
	m.mu.Lock()
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()
	for _, f := range listeners {
		f()
	}
}

func (m *mockSession) SetActive(active bool) {
	m.active = active
	m.setActiveCalls = append(m.setActiveCalls, active)
}

func (m *mockSession) IsActive() bool {
	return m.active
}

func (m *mockSession) Close() error {
	m.closeCount++
	return nil
}
