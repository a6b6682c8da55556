// Package assistant orchestrates one conversational turn: prompt assembly,
// the gateway call, command extraction and application, display
// sanitization, and history persistence. It owns no entity storage; all
// mutations flow through the host-supplied callbacks.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"dayflow/internal/articulation"
	"dayflow/internal/logging"
	"dayflow/internal/perception"
	"dayflow/internal/prompt"
	"dayflow/internal/store"
	"dayflow/internal/types"
)

// ErrTurnInFlight is returned when Send is called while a previous turn is
// still waiting on the model. Hosts disable the send affordance on it.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// User-facing messages for upstream failures. Credential problems get their
// own message because retrying will not fix them.
const (
	apologyGeneric    = "I'm sorry, something went wrong while thinking about that. Please try again."
	apologyCredential = "I can't reach the language model: the API key looks missing or invalid. Please check your dayflow configuration."
)

// Applied records one executed command and how many callback invocations it
// produced.
type Applied struct {
	Kind  articulation.Kind
	Count int
}

// Ambiguity records a fuzzy reference that matched more than one entity.
// The mutation was skipped; Candidates are offered for disambiguation.
type Ambiguity struct {
	Kind       articulation.Kind
	Reference  string
	Candidates []string
}

// Result is the outcome of processing one raw model response.
type Result struct {
	DisplayText string
	Applied     []Applied
	Ambiguities []Ambiguity
}

// SideEffects returns the total number of callback invocations.
func (r Result) SideEffects() int {
	n := 0
	for _, a := range r.Applied {
		n += a.Count
	}
	return n
}

// Assistant is the conversational core. Construct with New, then Load once,
// then Send per user turn.
type Assistant struct {
	gateway   perception.Client
	history   *store.History
	prompter  *prompt.Builder
	callbacks types.Callbacks

	sem *semaphore.Weighted

	mu       sync.Mutex
	messages []types.ChatMessage
}

// New wires an Assistant. Any callback may be nil; unsupported mutations
// become no-ops.
func New(gateway perception.Client, history *store.History, prompter *prompt.Builder, callbacks types.Callbacks) *Assistant {
	return &Assistant{
		gateway:   gateway,
		history:   history,
		prompter:  prompter,
		callbacks: callbacks,
		sem:       semaphore.NewWeighted(1),
	}
}

// Load restores the persisted transcript. Safe to call on a fresh store;
// missing or corrupt history starts empty.
func (a *Assistant) Load(ctx context.Context) {
	msgs := a.history.Load(ctx)
	a.mu.Lock()
	a.messages = msgs
	a.mu.Unlock()
	logging.Session("loaded %d persisted messages", len(msgs))
}

// Messages returns a copy of the transcript.
func (a *Assistant) Messages() []types.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.ChatMessage, len(a.messages))
	copy(out, a.messages)
	return out
}

// ClearHistory wipes the transcript, in memory and in the store.
func (a *Assistant) ClearHistory(ctx context.Context) error {
	a.mu.Lock()
	a.messages = nil
	a.mu.Unlock()
	return a.history.Clear(ctx)
}

// Send runs one full turn: append the user message, call the model with the
// current entity snapshot, apply any commands, and append the sanitized
// reply. The returned message is what the host should display; upstream
// failures come back as apology messages, not errors.
func (a *Assistant) Send(ctx context.Context, userText string, snap types.Snapshot) (types.ChatMessage, error) {
	if !a.sem.TryAcquire(1) {
		return types.ChatMessage{}, ErrTurnInFlight
	}
	defer a.sem.Release(1)

	userMsg := types.NewUserMessage(userText)
	a.appendAndPersist(ctx, userMsg)

	system := a.prompter.Build(snap)
	historyMsgs := a.gatewayHistory()

	raw, err := a.gateway.Complete(ctx, system, historyMsgs, userText)
	if err != nil {
		logging.Session("gateway call failed: %v", err)
		apology := apologyGeneric
		if perception.IsCredentialError(err) {
			apology = apologyCredential
		}
		reply := types.NewAssistantMessage(apology)
		a.appendAndPersist(ctx, reply)
		return reply, nil
	}

	result := a.HandleIncomingResponse(raw, snap)
	reply := types.NewAssistantMessage(result.DisplayText)
	a.appendAndPersist(ctx, reply)
	logging.Session("turn complete: %d side effects, %d ambiguities", result.SideEffects(), len(result.Ambiguities))
	return reply, nil
}

// HandleIncomingResponse processes a raw model response against the given
// snapshot: extract commands, apply them through the callbacks, and strip
// every applied or extracted span from the display text.
func (a *Assistant) HandleIncomingResponse(raw string, snap types.Snapshot) Result {
	cmds := articulation.ExtractAll(raw)

	var result Result
	for _, cmd := range cmds {
		a.apply(cmd, snap, &result)
	}

	display := articulation.Sanitize(raw, cmds)
	if q := disambiguationText(result.Ambiguities); q != "" {
		display = strings.TrimSpace(display + "\n\n" + q)
	}
	result.DisplayText = display
	return result
}

// gatewayHistory returns the transcript minus the just-appended user
// message, which goes to the provider as the fresh turn.
func (a *Assistant) gatewayHistory() []perception.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.messages)
	if n > 0 {
		n--
	}
	out := make([]perception.Message, 0, n)
	for _, m := range a.messages[:n] {
		out = append(out, perception.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func (a *Assistant) appendAndPersist(ctx context.Context, msg types.ChatMessage) {
	a.mu.Lock()
	a.messages = append(a.messages, msg)
	snapshot := make([]types.ChatMessage, len(a.messages))
	copy(snapshot, a.messages)
	a.mu.Unlock()

	if err := a.history.Save(ctx, snapshot); err != nil {
		logging.Session("history persist failed: %v", err)
	}
}

// disambiguationText turns collected ambiguities into a follow-up question.
func disambiguationText(ambs []Ambiguity) string {
	if len(ambs) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, amb := range ambs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "I found %d items matching %q: %s. Which one did you mean?",
			len(amb.Candidates), amb.Reference, strings.Join(amb.Candidates, ", "))
	}
	return sb.String()
}
