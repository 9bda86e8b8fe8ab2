package speech

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// MockEngine is a deterministic engine. Tests drive it by hand with Boundary,
// Finish and Fail; with Simulate set it narrates on its own at a words-per-
// minute pace, which is what the mock engine type uses at runtime.
type MockEngine struct {
	// Simulate makes Speak emit word boundaries and an end by itself.
	Simulate bool
	// WordsPerMinute is the simulated pace at rate 1.0.
	WordsPerMinute float64

	mu       sync.Mutex
	voices   []Voice
	hideFor  int
	current  *mockUtterance
	speaking bool
	history  []Request
	cancels  int
	overlaps int
}

type mockUtterance struct {
	req  Request
	sink func(Event)
	stop chan struct{}
}

// NewMockEngine creates a mock offering voices.
func NewMockEngine(voices ...Voice) *MockEngine {
	return &MockEngine{voices: voices, WordsPerMinute: 150}
}

// HideVoicesFor makes the first n Voices calls return nothing, like a
// platform that loads its voice list asynchronously.
func (m *MockEngine) HideVoicesFor(n int) {
	m.mu.Lock()
	m.hideFor = n
	m.mu.Unlock()
}

func (m *MockEngine) Voices(context.Context) ([]Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideFor > 0 {
		m.hideFor--
		return []Voice{}, nil
	}
	return append([]Voice(nil), m.voices...), nil
}

func (m *MockEngine) Speak(req Request, sink func(Event)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.overlaps++
	}
	u := &mockUtterance{req: req, sink: sink, stop: make(chan struct{})}
	m.current = u
	m.speaking = true
	m.history = append(m.history, req)

	if m.Simulate {
		go m.simulate(u)
	}
	return nil
}

func (m *MockEngine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		close(m.current.stop)
		m.current = nil
		m.cancels++
	}
	m.speaking = false
	return nil
}

func (m *MockEngine) Speaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// Boundary emits a boundary event for the current utterance.
func (m *MockEngine) Boundary(charIndex int) {
	if u := m.currentUtterance(); u != nil {
		u.sink(Event{Kind: EventBoundary, CharIndex: charIndex})
	}
}

// Finish ends the current utterance naturally.
func (m *MockEngine) Finish() {
	m.mu.Lock()
	u := m.current
	m.current = nil
	m.speaking = false
	m.mu.Unlock()
	if u != nil {
		u.sink(Event{Kind: EventEnd})
	}
}

// FinishEarly reports an end while the engine still claims to be speaking.
func (m *MockEngine) FinishEarly() {
	if u := m.currentUtterance(); u != nil {
		u.sink(Event{Kind: EventEnd})
	}
}

// Fail reports an engine error for the current utterance.
func (m *MockEngine) Fail(err error) {
	m.mu.Lock()
	u := m.current
	m.current = nil
	m.speaking = false
	m.mu.Unlock()
	if u != nil {
		u.sink(Event{Kind: EventError, Err: err})
	}
}

// Requests returns every submitted utterance in order.
func (m *MockEngine) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.history...)
}

// LastRequest returns the most recent submission.
func (m *MockEngine) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Request{}, false
	}
	return m.history[len(m.history)-1], true
}

// Cancels counts cancellations of a live utterance.
func (m *MockEngine) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

// Overlaps counts submissions made while another utterance was still live.
func (m *MockEngine) Overlaps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

func (m *MockEngine) currentUtterance() *mockUtterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// simulate emits a boundary at the start of every word, paced by the rate.
func (m *MockEngine) simulate(u *mockUtterance) {
	rate := u.req.Rate
	if rate <= 0 {
		rate = 1
	}
	perWord := time.Duration(float64(time.Minute) / (m.WordsPerMinute * rate))

	offset := 0
	for _, field := range strings.SplitAfter(u.req.Text, " ") {
		select {
		case <-u.stop:
			return
		case <-time.After(perWord):
		}
		u.sink(Event{Kind: EventBoundary, CharIndex: offset})
		offset += utf8.RuneCountInString(field)
	}

	m.mu.Lock()
	if m.current != u {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.speaking = false
	m.mu.Unlock()
	u.sink(Event{Kind: EventEnd})
}
