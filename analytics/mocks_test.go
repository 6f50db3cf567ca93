package analytics

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mockLocator struct {
	LocateFunc func(ip string) (Geolocation, error)
}

func (m *mockLocator) Locate(ip string) (Geolocation, error) {
	return m.LocateFunc(ip)
}

// memoryKeyValue counts writes per key so throttling can be observed.
type memoryKeyValue struct {
	mu     sync.Mutex
	values map[string]string
	sets   map[string]int
	failOn string
}

func newMemoryKeyValue() *memoryKeyValue {
	return &memoryKeyValue{values: map[string]string{}, sets: map[string]int{}}
}

func (m *memoryKeyValue) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKeyValue) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.failOn {
		return errors.New("storage full")
	}
	m.values[key] = value
	m.sets[key]++
	return nil
}

func (m *memoryKeyValue) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryKeyValue) setCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets[key]
}

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}
