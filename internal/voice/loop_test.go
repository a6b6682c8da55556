package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dayflow/internal/speech"
)

// testDispatch is a scripted Dispatch that records transcripts.
type testDispatch struct {
	mu          sync.Mutex
	transcripts []string
	reply       string
	err         error
	block       chan struct{}
}

func (d *testDispatch) fn(ctx context.Context, transcript string) (string, error) {
	d.mu.Lock()
	d.transcripts = append(d.transcripts, transcript)
	block := d.block
	d.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return d.reply, d.err
}

func (d *testDispatch) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.transcripts))
	copy(out, d.transcripts)
	return out
}

func newTestController(dispatch *testDispatch) (*Controller, *speech.MockRecognizer, *speech.MockSynthesizer, *speech.MockPlayer) {
	rec := &speech.MockRecognizer{}
	synth := &speech.MockSynthesizer{}
	player := &speech.MockPlayer{}
	c := NewController(rec, synth, player, dispatch.fn, Options{
		Voice:       "Kore",
		ResumeDelay: 5 * time.Millisecond,
	})
	return c, rec, synth, player
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestStartEntersListening(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	c, rec, _, _ := newTestController(&testDispatch{reply: "hi"})
	require.NoError(t, c.Start())
	defer c.Stop()

	assert.True(t, c.Active())
	assert.Equal(t, StateListening, c.State())
	assert.Len(t, rec.Sessions(), 1)

	// Start on an active controller is a no-op.
	require.NoError(t, c.Start())
	assert.Len(t, rec.Sessions(), 1)
}

func TestFinalTranscriptDispatchesSpeaksAndResumes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	dispatch := &testDispatch{reply: "Task added."}
	c, rec, synth, player := newTestController(dispatch)
	require.NoError(t, c.Start())
	defer c.Stop()

	rec.Sessions()[0].DeliverFinal("add a task to water the plants")

	waitFor(t, func() bool { return len(rec.Sessions()) == 2 })
	assert.Equal(t, []string{"add a task to water the plants"}, dispatch.seen())
	assert.Equal(t, []string{"Task added."}, synth.SynthesizedTexts())
	assert.Equal(t, 1, player.PlayCount())
	assert.Equal(t, StateListening, c.State())
}

func TestEmptyReplySkipsSpeaking(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	dispatch := &testDispatch{reply: "   "}
	c, rec, synth, player := newTestController(dispatch)
	require.NoError(t, c.Start())
	defer c.Stop()

	rec.Sessions()[0].DeliverFinal("delete everything")

	waitFor(t, func() bool { return len(rec.Sessions()) == 2 })
	assert.Empty(t, synth.SynthesizedTexts())
	assert.Equal(t, 0, player.PlayCount())
}

func TestSynthesisFailureStillResumesListening(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	dispatch := &testDispatch{reply: "Done."}
	c, rec, synth, player := newTestController(dispatch)
	synth.Err = errors.New("tts unavailable")
	require.NoError(t, c.Start())
	defer c.Stop()

	rec.Sessions()[0].DeliverFinal("hello")

	waitFor(t, func() bool { return len(rec.Sessions()) == 2 })
	assert.Equal(t, 0, player.PlayCount())
	assert.Equal(t, StateListening, c.State())
}

func TestStopIsHardCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	dispatch := &testDispatch{reply: "ok", block: make(chan struct{})}
	c, rec, synth, _ := newTestController(dispatch)
	require.NoError(t, c.Start())

	session := rec.Sessions()[0]
	session.DeliverFinal("long running turn")
	waitFor(t, func() bool { return len(dispatch.seen()) == 1 })

	// Stop while the dispatch is still in flight. The turn's context is
	// cancelled, nothing is spoken, and no new session starts.
	c.Stop()

	assert.False(t, c.Active())
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, synth.SynthesizedTexts())
	assert.Len(t, rec.Sessions(), 1)
}

func TestStopCancelsOpenRecognitionSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	c, rec, _, _ := newTestController(&testDispatch{reply: "x"})
	require.NoError(t, c.Start())

	session := rec.Sessions()[0]
	c.Stop()

	assert.True(t, session.Stopped())

	// A transcript delivered after Stop must be swallowed by the session.
	session.DeliverFinal("too late")
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.Sessions(), 1)
}

func TestRecognitionErrorForcesIdleWithSystemMessage(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	var (
		mu   sync.Mutex
		msgs []string
	)
	dispatch := &testDispatch{reply: "x"}
	rec := &speech.MockRecognizer{}
	c := NewController(rec, &speech.MockSynthesizer{}, &speech.MockPlayer{}, dispatch.fn, Options{
		ResumeDelay: 5 * time.Millisecond,
		Events: Events{
			OnSystemMessage: func(text string) {
				mu.Lock()
				msgs = append(msgs, text)
				mu.Unlock()
			},
		},
	})
	require.NoError(t, c.Start())

	rec.Sessions()[0].DeliverError(errors.New("microphone permission denied"))

	assert.False(t, c.Active())
	assert.Equal(t, StateIdle, c.State())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "microphone permission denied")
	assert.Empty(t, dispatch.seen())
}

func TestPartialTextForwarded(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	var (
		mu       sync.Mutex
		partials []string
	)
	dispatch := &testDispatch{reply: "x"}
	rec := &speech.MockRecognizer{}
	c := NewController(rec, &speech.MockSynthesizer{}, &speech.MockPlayer{}, dispatch.fn, Options{
		ResumeDelay: 5 * time.Millisecond,
		Events: Events{
			OnPartial: func(text string) {
				mu.Lock()
				partials = append(partials, text)
				mu.Unlock()
			},
		},
	})
	require.NoError(t, c.Start())
	defer c.Stop()

	rec.Sessions()[0].DeliverPartial("add a")
	rec.Sessions()[0].DeliverPartial("add a task")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"add a", "add a task"}, partials)
}

func TestRestartAfterStopUsesFreshGeneration(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	dispatch := &testDispatch{reply: "ok"}
	c, rec, _, _ := newTestController(dispatch)

	require.NoError(t, c.Start())
	stale := rec.Sessions()[0]
	c.Stop()

	require.NoError(t, c.Start())
	defer c.Stop()
	require.Len(t, rec.Sessions(), 2)

	// The stale session was stopped; only the fresh one feeds the loop.
	assert.True(t, stale.Stopped())
	rec.Sessions()[1].DeliverFinal("fresh turn")
	waitFor(t, func() bool { return len(dispatch.seen()) == 1 })
	assert.Equal(t, []string{"fresh turn"}, dispatch.seen())
}
