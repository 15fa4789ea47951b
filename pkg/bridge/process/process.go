package process

import (
	"context"
	"sync"

	"github.com/tauraamui/framebridge/pkg/log"
)

type Process interface {
	Setup() Process
	Start()
	Stop()
	Wait()
}

type Settings struct {
	WaitForShutdownMsg string
	Process            func(context.Context) []chan interface{}
}

func New(settings Settings) Process {
	return &process{
		waitForShutdownMsg: settings.WaitForShutdownMsg,
		process:            settings.Process,
	}
}

type process struct {
	mu                 sync.Mutex
	process            func(context.Context) []chan interface{}
	waitForShutdownMsg string
	canceller          context.CancelFunc
	signals            []chan interface{}
}

func (p *process) logShutdown() {
	if len(p.waitForShutdownMsg) > 0 {
		log.Info(p.waitForShutdownMsg)
	}
}

func (p *process) Setup() Process { return p }

// Start runs the process func under a fresh cancellable context, starting
// an already running process again is a no-op.
func (p *process) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.canceller != nil {
		return
	}
	ctx, canceller := context.WithCancel(context.Background())
	p.canceller = canceller
	p.signals = append(p.signals, p.process(ctx)...)
}

func (p *process) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logShutdown()
	if p.canceller != nil {
		p.canceller()
	}
}

// Wait blocks until every stop signal the process func returned is closed.
func (p *process) Wait() {
	p.mu.Lock()
	signals := append([]chan interface{}{}, p.signals...)
	p.mu.Unlock()
	for _, sig := range signals {
		<-sig
	}
}
