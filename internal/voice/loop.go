// Package voice drives the continuous listen, dispatch, speak cycle of
// voice mode. The controller owns the cycle's state machine; capture and
// playback come in through the speech interfaces, and each final transcript
// is handed to the host's dispatch function as if the user had typed it.
package voice

import (
	"context"
	"strings"
	"sync"
	"time"

	"dayflow/internal/logging"
	"dayflow/internal/speech"
)

// State is the controller's position in the voice cycle.
type State int

const (
	StateIdle State = iota
	StateListening
	StateDispatching
	StateAwaitingModel
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateDispatching:
		return "dispatching"
	case StateAwaitingModel:
		return "awaiting-model"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Dispatch runs one chat turn for a final transcript and returns the text
// the assistant wants displayed (and spoken).
type Dispatch func(ctx context.Context, transcript string) (string, error)

// Events are optional host notifications. Any field may be nil.
type Events struct {
	// OnPartial fires with interim recognition text while the user speaks.
	OnPartial func(text string)
	// OnTranscript fires once per turn with the final transcript.
	OnTranscript func(text string)
	// OnSystemMessage surfaces recognition failures as inline messages.
	OnSystemMessage func(text string)
	// OnState fires on every state transition.
	OnState func(s State)
}

// Controller is the voice loop state machine. The active flag guarded by mu
// is the single source of truth; callbacks arriving after Stop are dropped
// by generation check rather than by mirrored flags.
type Controller struct {
	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer
	player      speech.Player
	dispatch    Dispatch
	voice       string
	resumeDelay time.Duration
	events      Events

	mu         sync.Mutex
	active     bool
	state      State
	generation int
	session    speech.Session
	cancel     context.CancelFunc

	wg sync.WaitGroup
}

// Options configure a Controller.
type Options struct {
	Voice       string
	ResumeDelay time.Duration
	Events      Events
}

// NewController wires the loop. ResumeDelay defaults to one second; it keeps
// the microphone from re-capturing the tail of the synthesized audio.
func NewController(rec speech.Recognizer, synth speech.Synthesizer, player speech.Player, dispatch Dispatch, opts Options) *Controller {
	if opts.ResumeDelay <= 0 {
		opts.ResumeDelay = time.Second
	}
	return &Controller{
		recognizer:  rec,
		synthesizer: synth,
		player:      player,
		dispatch:    dispatch,
		voice:       opts.Voice,
		resumeDelay: opts.ResumeDelay,
		events:      opts.Events,
	}
}

// Active reports whether voice mode is on.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns the current cycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start turns voice mode on and begins listening. Starting an active
// controller is a no-op.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = true
	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	logging.Voice("voice mode on")
	return c.listen(ctx, gen)
}

// Stop turns voice mode off: in-flight recognition and playback are
// cancelled immediately, not drained.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.generation++
	session := c.session
	c.session = nil
	cancel := c.cancel
	c.cancel = nil
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	if session != nil {
		session.Stop()
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logging.Voice("voice mode off")
}

// listen opens a recognition session for one turn.
func (c *Controller) listen(ctx context.Context, gen int) error {
	c.mu.Lock()
	if !c.active || gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateListening)
	c.mu.Unlock()

	session, err := c.recognizer.Start(ctx, speech.RecognitionCallbacks{
		OnPartial: func(text string) {
			if c.current(gen) && c.events.OnPartial != nil {
				c.events.OnPartial(text)
			}
		},
		OnFinal: func(text string) {
			if !c.current(gen) {
				return
			}
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.runTurn(ctx, gen, text)
			}()
		},
		OnError: func(err error) {
			if !c.current(gen) {
				return
			}
			logging.Voice("recognition failed: %v", err)
			c.Stop()
			if c.events.OnSystemMessage != nil {
				c.events.OnSystemMessage("Voice input failed: " + err.Error())
			}
		},
	})
	if err != nil {
		c.Stop()
		return err
	}

	c.mu.Lock()
	if !c.active || gen != c.generation {
		c.mu.Unlock()
		session.Stop()
		return nil
	}
	c.session = session
	c.mu.Unlock()
	return nil
}

// runTurn carries one final transcript through dispatch, speech, and the
// resume delay back into listening.
func (c *Controller) runTurn(ctx context.Context, gen int, transcript string) {
	c.mu.Lock()
	if !c.active || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.setStateLocked(StateDispatching)
	c.mu.Unlock()

	if c.events.OnTranscript != nil {
		c.events.OnTranscript(transcript)
	}

	c.setState(gen, StateAwaitingModel)
	reply, err := c.dispatch(ctx, transcript)
	if err != nil {
		logging.Voice("dispatch failed: %v", err)
	}

	if err == nil && strings.TrimSpace(reply) != "" && c.current(gen) {
		c.setState(gen, StateSpeaking)
		c.speak(ctx, reply)
	}

	// A fixed pause before re-arming the microphone so the tail of the
	// synthesized audio is not captured as new input.
	select {
	case <-ctx.Done():
		return
	case <-time.After(c.resumeDelay):
	}

	if c.current(gen) {
		if err := c.listen(ctx, gen); err != nil {
			logging.Voice("failed to resume listening: %v", err)
		}
	}
}

// speak synthesizes and plays one reply. Failures end Speaking early; the
// loop resumes regardless.
func (c *Controller) speak(ctx context.Context, text string) {
	audio, err := c.synthesizer.Synthesize(ctx, text, c.voice)
	if err != nil {
		logging.Voice("synthesis failed: %v", err)
		return
	}
	if err := c.player.Play(ctx, audio); err != nil {
		logging.Voice("playback failed: %v", err)
	}
}

// current reports whether gen is still the live generation.
func (c *Controller) current(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && gen == c.generation
}

func (c *Controller) setState(gen int, s State) {
	c.mu.Lock()
	if !c.active || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(s)
	c.mu.Unlock()
}

// setStateLocked requires c.mu held.
func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	logging.VoiceDebug("state %s -> %s", c.state, s)
	c.state = s
	if c.events.OnState != nil {
		go c.events.OnState(s)
	}
}
