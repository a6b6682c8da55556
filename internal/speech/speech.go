// Package speech abstracts the voice input/output capabilities the voice
// loop depends on. The core never knows the concrete provider: a browser
// engine, a cloud API, or a test double all satisfy the same two interfaces.
package speech

import "context"

// RecognitionCallbacks receives the events of one listening session.
// OnPartial fires with interim text while the user is still speaking;
// OnFinal fires once with the full transcript after trailing silence;
// OnError fires instead of OnFinal when capture fails.
type RecognitionCallbacks struct {
	OnPartial func(text string)
	OnFinal   func(text string)
	OnError   func(err error)
}

// Session is a cancellable in-flight recognition session.
type Session interface {
	// Stop cancels capture immediately. No callbacks fire after Stop
	// returns. Stopping an already-finished session is a no-op.
	Stop()
}

// Recognizer starts speech-capture sessions.
type Recognizer interface {
	Start(ctx context.Context, cb RecognitionCallbacks) (Session, error)
}

// Synthesizer renders text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Player plays synthesized audio. Play blocks until playback completes or
// the context is cancelled.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}
