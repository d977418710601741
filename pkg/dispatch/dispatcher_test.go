package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ai-relay-bot/internal/metrics"
	"ai-relay-bot/pkg/command"
	"ai-relay-bot/pkg/events"
	"ai-relay-bot/pkg/imagegen"
	"ai-relay-bot/pkg/intent"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbound struct {
	Text string
	File string
	Data []byte
}

type recordingSender struct {
	mu  sync.Mutex
	out []outbound
}

func (s *recordingSender) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, outbound{Text: text})
	return nil
}

func (s *recordingSender) SendFile(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, outbound{File: name, Data: data})
	return nil
}

type fakeGenerator struct {
	image imagegen.Image
	err   error
	reqs  []imagegen.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req imagegen.Request) (imagegen.Image, error) {
	g.reqs = append(g.reqs, req)
	return g.image, g.err
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.types = append(p.types, e.EventType())
	return nil
}

func TestDispatchDecision_TextOnly(t *testing.T) {
	gen := &fakeGenerator{}
	sender := &recordingSender{}
	d := NewDispatcher(gen, "", nil, nil, nil)

	err := d.DispatchDecision(context.Background(), sender, intent.Decision{Reply: "  hello  ", Width: 1024, Height: 1024})
	require.NoError(t, err)

	assert.Equal(t, []outbound{{Text: "hello"}}, sender.out)
	assert.Empty(t, gen.reqs)
}

func TestDispatchDecision_EmptyReplySentinel(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(&fakeGenerator{}, "", nil, nil, nil)

	require.NoError(t, d.DispatchDecision(context.Background(), sender, intent.Decision{Reply: " \n "}))
	assert.Equal(t, []outbound{{Text: "(empty reply)"}}, sender.out)
}

func TestDispatchDecision_ChunksLongReplies(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(&fakeGenerator{}, "", nil, nil, nil)

	reply := strings.Repeat("x", 5000)
	require.NoError(t, d.DispatchDecision(context.Background(), sender, intent.Decision{Reply: reply}))

	require.Len(t, sender.out, 3)
	assert.Len(t, sender.out[0].Text, 2000)
	assert.Len(t, sender.out[1].Text, 2000)
	assert.Len(t, sender.out[2].Text, 1000)
}

func TestDispatchDecision_GeneratesImage(t *testing.T) {
	gen := &fakeGenerator{image: imagegen.Image{Data: []byte("png-bytes"), ContentType: "image/png"}}
	sender := &recordingSender{}
	pub := &recordingPublisher{}
	m := metrics.NewMetrics()
	d := NewDispatcher(gen, "flux", pub, nil, m)

	decision := intent.Decision{NeedImage: true, ImagePrompt: "a lighthouse", Width: 1920, Height: 1080, Reply: "On it."}
	require.NoError(t, d.DispatchDecision(context.Background(), sender, decision))

	require.Len(t, sender.out, 3)
	assert.Equal(t, "On it.", sender.out[0].Text)
	assert.Equal(t, "🎨 Generating image (1920x1080)...\n> Prompt: `a lighthouse`", sender.out[1].Text)
	assert.Equal(t, "image.png", sender.out[2].File)
	assert.Equal(t, []byte("png-bytes"), sender.out[2].Data)

	assert.Equal(t, []imagegen.Request{{Model: "flux", Width: 1920, Height: 1080, Prompt: "a lighthouse"}}, gen.reqs)
	assert.Equal(t, []string{events.TypeImageGenerated}, pub.types)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ImageJobsTotal.WithLabelValues("decision", "ok")))
}

func TestDispatchDecision_PromptPreviewIsTruncated(t *testing.T) {
	gen := &fakeGenerator{image: imagegen.Image{Data: []byte("x"), ContentType: "image/jpeg"}}
	sender := &recordingSender{}
	d := NewDispatcher(gen, "", nil, nil, nil)

	prompt := strings.Repeat("p", 250)
	decision := intent.Decision{NeedImage: true, ImagePrompt: prompt, Width: 1024, Height: 1024, Reply: "ok"}
	require.NoError(t, d.DispatchDecision(context.Background(), sender, decision))

	assert.Equal(t, "🎨 Generating image (1024x1024)...\n> Prompt: `"+strings.Repeat("p", 200)+"...`", sender.out[1].Text)
	assert.Equal(t, "image.jpg", sender.out[2].File)
	assert.Equal(t, prompt, gen.reqs[0].Prompt, "full prompt goes to the backend")
}

func TestDispatchDecision_NeedImageWithoutPromptSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	sender := &recordingSender{}
	d := NewDispatcher(gen, "", nil, nil, nil)

	require.NoError(t, d.DispatchDecision(context.Background(), sender, intent.Decision{NeedImage: true, Reply: "hmm"}))
	assert.Len(t, sender.out, 1)
	assert.Empty(t, gen.reqs)
}

func TestDispatchDecision_ImageFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "http status",
			err:  &imagegen.HTTPError{StatusCode: 502, Body: "bad gateway"},
			want: "⚠️ Image generation failed: HTTP 502",
		},
		{
			name: "timeout",
			err:  context.DeadlineExceeded,
			want: "⚠️ Image generation failed: Timeout: context deadline exceeded",
		},
		{
			name: "generic",
			err:  errors.New("boom"),
			want: "⚠️ Image generation failed: Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			pub := &recordingPublisher{}
			d := NewDispatcher(&fakeGenerator{err: tt.err}, "", pub, nil, nil)

			decision := intent.Decision{NeedImage: true, ImagePrompt: "x", Width: 512, Height: 512, Reply: "ok"}
			require.NoError(t, d.DispatchDecision(context.Background(), sender, decision))

			require.Len(t, sender.out, 3)
			assert.Equal(t, tt.want, sender.out[2].Text)
			assert.Equal(t, []string{events.TypeImageFailed}, pub.types)
		})
	}
}

func TestDispatchManual(t *testing.T) {
	gen := &fakeGenerator{image: imagegen.Image{Data: []byte("w"), ContentType: "image/webp"}}
	sender := &recordingSender{}
	d := NewDispatcher(gen, "flux", nil, nil, nil)

	req := command.ManualImageRequest{Model: "turbo", Width: 640, Height: 480, Prompt: "a cat"}
	require.NoError(t, d.DispatchManual(context.Background(), sender, req))

	require.Len(t, sender.out, 2)
	assert.Equal(t, "🎨 Generating: model=turbo, 640x480, prompt=`a cat`", sender.out[0].Text)
	assert.Equal(t, "image.webp", sender.out[1].File)
	assert.Equal(t, "turbo", gen.reqs[0].Model, "manual requests use their own model")
}

func TestDispatchManual_HTTPFailureIncludesBodyExcerpt(t *testing.T) {
	body := strings.Repeat("e", 1000)
	gen := &fakeGenerator{err: &imagegen.HTTPError{StatusCode: 402, Body: body}}
	sender := &recordingSender{}
	d := NewDispatcher(gen, "", nil, nil, nil)

	req := command.ManualImageRequest{Model: "flux", Width: 1024, Height: 1024, Prompt: "a cat"}
	require.NoError(t, d.DispatchManual(context.Background(), sender, req))

	require.Len(t, sender.out, 2)
	assert.Equal(t, "Image request failed: HTTP 402\n"+strings.Repeat("e", 800), sender.out[1].Text)
}

func TestDispatchManual_GenericFailure(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(&fakeGenerator{err: context.Canceled}, "", nil, nil, nil)

	req := command.ManualImageRequest{Model: "flux", Width: 1024, Height: 1024, Prompt: "a cat"}
	require.NoError(t, d.DispatchManual(context.Background(), sender, req))

	assert.Equal(t, "Generation failed: Canceled: context canceled", sender.out[1].Text)
}
