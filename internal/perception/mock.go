package perception

import "context"

// MockClient is a canned-response Client for tests and offline development.
type MockClient struct {
	// Responses are returned in order; the last one repeats.
	Responses []string

	// Err, when set, is returned instead of a response.
	Err error

	// Calls records every request for assertions.
	Calls []MockCall

	next int
}

// MockCall captures one Complete invocation.
type MockCall struct {
	System   string
	History  []Message
	UserText string
}

// Complete returns the next canned response.
func (m *MockClient) Complete(_ context.Context, system string, history []Message, userText string) (string, error) {
	m.Calls = append(m.Calls, MockCall{System: system, History: history, UserText: userText})
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "OK.", nil
	}
	resp := m.Responses[m.next]
	if m.next < len(m.Responses)-1 {
		m.next++
	}
	return resp, nil
}
