package capture

import "sync"

type frameListeners struct {
	mu     sync.Mutex
	nextID int
	funcs  map[int]func()
}

func (l *frameListeners) add(f func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.funcs == nil {
		l.funcs = map[int]func(){}
	}
	id := l.nextID
	l.nextID++
	l.funcs[id] = f

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.funcs, id)
		})
	}
}

// notify calls every listener outside of the lock so listeners are free
// to unsubscribe or acquire images.
func (l *frameListeners) notify() {
	l.mu.Lock()
	funcs := make([]func(), 0, len(l.funcs))
	for _, f := range l.funcs {
		funcs = append(funcs, f)
	}
	l.mu.Unlock()

	for _, f := range funcs {
		f()
	}
}

func (l *frameListeners) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funcs = nil
}
