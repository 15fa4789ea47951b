package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/tauraamui/framebridge/pkg/bridge/process"
	"github.com/tauraamui/framebridge/pkg/log"
)

func (s *server) SetupProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()

	interval := time.Duration(s.config.SnapshotIntervalSeconds) * time.Second
	if interval <= 0 {
		log.Warn("Snapshot interval is not set... skipping snapshots...")
		return
	}

	for _, src := range s.sources {
		if len(src.snapshotLocation) == 0 {
			log.Debug("Image source [%s] has no snapshot location... skipping snapshots...", src.adapter.Title())
			continue
		}
		proc := process.New(process.Settings{
			WaitForShutdownMsg: fmt.Sprintf("Stopping snapshots for image source [%s]...", src.adapter.Title()),
			Process:            process.SnapshotProcess(src.adapter, src.snapshotLocation, interval),
		}).Setup()
		s.processes = append(s.processes, proc)
	}
}

func (s *server) RunProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, proc := range s.processes {
		proc.Start()
	}
}

func (s *server) shutdownProcesses() {
	s.mu.Lock()
	processes := s.processes
	s.processes = nil
	s.mu.Unlock()

	wg := sync.WaitGroup{}
	wg.Add(len(processes))
	for _, proc := range processes {
		go func(wg *sync.WaitGroup, proc process.Process) {
			proc.Stop()
			proc.Wait()
			wg.Done()
		}(&wg, proc)
	}
	wg.Wait()
}
