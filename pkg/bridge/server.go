package bridge

import (
	"context"
	"sync"

	"github.com/tauraamui/framebridge/pkg/bridge/process"
	"github.com/tauraamui/framebridge/pkg/capture"
	"github.com/tauraamui/framebridge/pkg/configdef"
	"github.com/tauraamui/framebridge/pkg/log"
	"github.com/tauraamui/xerror"
)

var ErrUnknownSource = xerror.New("no image source with given UUID")

type Server interface {
	LoadConfiguration() error
	Config() configdef.Values
	Connect() []error
	ConnectWithCancel(context.Context) []error
	Play(context.Context) []error
	SetupProcesses()
	RunProcesses()
	Sources() []SourceStatus
	PauseSource(string) error
	ResumeSource(string) error
	Shutdown() chan interface{}
}

func NewServer(configResolver configdef.Resolver, backend capture.Backend) Server {
	return &server{
		configResolver: configResolver,
		backend:        backend,
		shutdownDone:   make(chan interface{}),
	}
}

type server struct {
	configResolver configdef.Resolver
	backend        capture.Backend
	shutdownOnce   sync.Once
	shutdownDone   chan interface{}
	config         configdef.Values
	mu             sync.Mutex
	sources        []*source
	processes      []process.Process
}

func (s *server) LoadConfiguration() error {
	config, err := s.configResolver.Resolve()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	return nil
}

func (s *server) Config() configdef.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *server) Connect() []error {
	return s.connect(context.Background())
}

func (s *server) ConnectWithCancel(cancel context.Context) []error {
	return s.connect(cancel)
}

func (s *server) connect(cancel context.Context) []error {
	var errs []error

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cfg := range s.config.Sources {
		select {
		case <-cancel.Done():
			return errs
		default:
			if cfg.Disabled {
				log.Warn("Image source [%s] is disabled... skipping...", cfg.Title)
				continue
			}

			log.Info("Connecting to image source: [%s]...", cfg.Title)
			src, err := newSource(cancel, cfg, s.backend)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			log.Info("Connected successfully to image source: [%s]", cfg.Title)
			s.sources = append(s.sources, src)
		}
	}
	return errs
}

// Play starts every connected source, failures do not stop the rest.
func (s *server) Play(ctx context.Context) []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, src := range s.sources {
		if err := src.adapter.Play(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (s *server) Sources() []SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]SourceStatus, 0, len(s.sources))
	for _, src := range s.sources {
		statuses = append(statuses, src.status())
	}
	return statuses
}

func (s *server) PauseSource(uuid string) error {
	src, err := s.findSource(uuid)
	if err != nil {
		return err
	}
	return src.adapter.Pause()
}

func (s *server) ResumeSource(uuid string) error {
	src, err := s.findSource(uuid)
	if err != nil {
		return err
	}
	return src.adapter.Resume(context.Background())
}

func (s *server) findSource(uuid string) (*source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.uuid == uuid {
			return src, nil
		}
	}
	return nil, xerror.Errorf("%w: %s", ErrUnknownSource, uuid)
}

func (s *server) shutdown() {
	s.shutdownProcesses()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		log.Warn("Closing image source: [%s]...", src.adapter.Title())
		src.close()
	}
	s.sources = nil
	close(s.shutdownDone)
}

func (s *server) Shutdown() chan interface{} {
	s.shutdownOnce.Do(func() {
		go s.shutdown()
	})
	return s.shutdownDone
}
