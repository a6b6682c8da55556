package speech

import (
	"context"
	"sync"
)

// MockRecognizer is a scripted Recognizer for tests. Each Start consumes the
// next scripted transcript and delivers it on OnFinal (or the scripted error
// on OnError). Delivery runs on the caller's goroutine via Deliver, so tests
// control exactly when the final transcript "arrives".
type MockRecognizer struct {
	mu       sync.Mutex
	sessions []*MockSession
}

// MockSession is one scripted capture session.
type MockSession struct {
	cb      RecognitionCallbacks
	mu      sync.Mutex
	stopped bool
}

// Start begins a scripted session.
func (r *MockRecognizer) Start(_ context.Context, cb RecognitionCallbacks) (Session, error) {
	s := &MockSession{cb: cb}
	r.mu.Lock()
	r.sessions = append(r.sessions, s)
	r.mu.Unlock()
	return s, nil
}

// Sessions returns every session started so far.
func (r *MockRecognizer) Sessions() []*MockSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*MockSession, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Stop marks the session cancelled; later Deliver calls are swallowed.
func (s *MockSession) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (s *MockSession) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// DeliverPartial simulates interim recognition text.
func (s *MockSession) DeliverPartial(text string) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped && s.cb.OnPartial != nil {
		s.cb.OnPartial(text)
	}
}

// DeliverFinal simulates the trailing-silence final transcript.
func (s *MockSession) DeliverFinal(text string) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped && s.cb.OnFinal != nil {
		s.cb.OnFinal(text)
	}
}

// DeliverError simulates a recognition failure.
func (s *MockSession) DeliverError(err error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped && s.cb.OnError != nil {
		s.cb.OnError(err)
	}
}

// MockSynthesizer records synthesis requests and returns canned audio.
type MockSynthesizer struct {
	mu    sync.Mutex
	Audio []byte
	Err   error
	Texts []string
}

// Synthesize records the text and returns the canned audio.
func (m *MockSynthesizer) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	m.mu.Lock()
	m.Texts = append(m.Texts, text)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Audio == nil {
		return []byte("audio"), nil
	}
	return m.Audio, nil
}

// SynthesizedTexts returns every text synthesized so far.
func (m *MockSynthesizer) SynthesizedTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Texts))
	copy(out, m.Texts)
	return out
}

// MockPlayer records playback and can block until released.
type MockPlayer struct {
	mu     sync.Mutex
	Played [][]byte
	Err    error
}

// Play records the audio.
func (p *MockPlayer) Play(_ context.Context, audio []byte) error {
	p.mu.Lock()
	p.Played = append(p.Played, audio)
	p.mu.Unlock()
	return p.Err
}

// PlayCount returns how many playbacks completed.
func (p *MockPlayer) PlayCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Played)
}
