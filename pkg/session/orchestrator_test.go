package session

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"ai-relay-bot/internal/constant"
	"ai-relay-bot/internal/metrics"
	"ai-relay-bot/internal/repository/memory"
	"ai-relay-bot/pkg/events"
	"ai-relay-bot/pkg/imagegen"
	"ai-relay-bot/pkg/llm"
	"ai-relay-bot/pkg/store"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]llm.Message
}

func (f *fakeProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]llm.Message(nil), history...))
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

const imageJSON = "```json\n" + `{"need_image": true, "image_prompt": "a red fox in snow", "width": 1024, "height": 768, "reply": "Drawing a fox."}` + "\n```"

func TestOrchestrator_StructuredImageDecision(t *testing.T) {
	history := memory.NewHistoryRepository()
	provider := &fakeProvider{replies: []string{imageJSON}}
	pub := &recordingPublisher{}
	o := NewOrchestrator(history, provider, pub, nil, nil)

	key := store.ChannelSessionKey("42")
	d, err := o.Process(context.Background(), key, "draw a fox")
	require.NoError(t, err)

	assert.True(t, d.NeedImage)
	assert.Equal(t, "a red fox in snow", d.ImagePrompt)
	assert.Equal(t, 1024, d.Width)
	assert.Equal(t, 768, d.Height)
	assert.Equal(t, "Drawing a fox.", d.Reply)

	want := []store.Turn{
		{Role: store.RoleUser, Content: "draw a fox"},
		{Role: store.RoleAssistant, Content: "Drawing a fox."},
	}
	if diff := cmp.Diff(want, history.Get(key)); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, provider.calls, 1)
	sent := provider.calls[0]
	require.Len(t, sent, 2)
	assert.Equal(t, llm.Message{Role: constant.ChatMessageRoleSystem, Content: constant.RelaySystemPromptV1}, sent[0])
	assert.Equal(t, llm.Message{Role: "user", Content: "draw a fox"}, sent[1])

	assert.Equal(t, []string{events.TypeDecisionParsed}, pub.types())
}

func TestOrchestrator_PlainReplyFallsBack(t *testing.T) {
	history := memory.NewHistoryRepository()
	m := metrics.NewMetrics()
	o := NewOrchestrator(history, &fakeProvider{replies: []string{"Hello there!"}}, nil, nil, m)

	d, err := o.Process(context.Background(), "dm_1", "hi")
	require.NoError(t, err)

	assert.False(t, d.NeedImage)
	assert.Empty(t, d.ImagePrompt)
	assert.Equal(t, "Hello there!", d.Reply)
	assert.Equal(t, "Hello there!", history.Get("dm_1")[1].Content)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("fallback")))
}

func TestOrchestrator_HistoryCarriesReplyTextOnly(t *testing.T) {
	history := memory.NewHistoryRepository()
	provider := &fakeProvider{replies: []string{imageJSON, `{"need_image": false, "image_prompt": "", "width": 0, "height": 0, "reply": "Sure."}`}}
	o := NewOrchestrator(history, provider, nil, nil, nil)

	_, err := o.Process(context.Background(), "dm_1", "draw a fox")
	require.NoError(t, err)
	_, err = o.Process(context.Background(), "dm_1", "thanks")
	require.NoError(t, err)

	second := provider.calls[1]
	want := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.RelaySystemPromptV1},
		{Role: "user", Content: "draw a fox"},
		{Role: "assistant", Content: "Drawing a fox."},
		{Role: "user", Content: "thanks"},
	}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_ModelFailureKeepsUserTurn(t *testing.T) {
	history := memory.NewHistoryRepository()
	cause := errors.New("connection refused")
	pub := &recordingPublisher{}
	m := metrics.NewMetrics()
	provider := &fakeProvider{err: cause}
	o := NewOrchestrator(history, provider, pub, nil, m)

	_, err := o.Process(context.Background(), "dm_7", "hello")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrModelCall)
	assert.ErrorIs(t, err, cause)
	var callErr *ModelCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "Error", callErr.Class())

	assert.Equal(t, []store.Turn{{Role: store.RoleUser, Content: "hello"}}, history.Get("dm_7"))
	assert.Len(t, provider.calls, 1, "no retry")
	assert.Equal(t, []string{events.TypeModelCallFailed}, pub.types())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ModelCallsTotal.WithLabelValues("error")))
}

func TestOrchestrator_AfterClearOnlyNewTurnIsSent(t *testing.T) {
	history := memory.NewHistoryRepository()
	provider := &fakeProvider{replies: []string{"one", "two"}}
	o := NewOrchestrator(history, provider, nil, nil, nil)

	_, err := o.Process(context.Background(), "channel_9", "first")
	require.NoError(t, err)
	history.Clear("channel_9")
	_, err = o.Process(context.Background(), "channel_9", "second")
	require.NoError(t, err)

	second := provider.calls[1]
	require.Len(t, second, 2)
	assert.Equal(t, "second", second[1].Content)
}

func TestOrchestrator_SessionsAreIsolated(t *testing.T) {
	history := memory.NewHistoryRepository()
	provider := &fakeProvider{replies: []string{"a", "b"}}
	o := NewOrchestrator(history, provider, nil, nil, nil)

	_, err := o.Process(context.Background(), "dm_1", "from one")
	require.NoError(t, err)
	_, err = o.Process(context.Background(), "dm_2", "from two")
	require.NoError(t, err)

	assert.Len(t, provider.calls[1], 2)
	assert.Equal(t, 2, history.Len("dm_1"))
	assert.Equal(t, 2, history.Len("dm_2"))
}

func TestModelCallError_Class(t *testing.T) {
	assert.Equal(t, "Timeout", (&ModelCallError{Err: context.DeadlineExceeded}).Class())
	assert.Equal(t, "Canceled", (&ModelCallError{Err: context.Canceled}).Class())
	assert.Equal(t, "Error", (&ModelCallError{Err: errors.New("x")}).Class())
	assert.Equal(t, "NetworkError", (&ModelCallError{Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}).Class())

	// model and image failures share one vocabulary
	for _, err := range []error{context.DeadlineExceeded, context.Canceled, errors.New("x")} {
		assert.Equal(t, imagegen.Classify(err), (&ModelCallError{Err: err}).Class())
	}
	assert.Equal(t, "language model call failed: x", (&ModelCallError{Err: errors.New("x")}).Error())
}
