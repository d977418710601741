package imagegen

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultWorkers = 4
	DefaultTimeout = 120 * time.Second
)

// Pool runs generation jobs on dedicated goroutines, at most `workers` at a
// time, each bounded by a fixed timeout. Callers block until their own job
// finishes; other sessions keep being served meanwhile.
type Pool struct {
	gen     Generator
	sem     *semaphore.Weighted
	timeout time.Duration
}

var _ Generator = (*Pool)(nil)

type jobResult struct {
	image Image
	err   error
}

func NewPool(gen Generator, workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pool{
		gen:     gen,
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
	}
}

// Generate submits req and waits for its result.
func (p *Pool) Generate(ctx context.Context, req Request) (Image, error) {
	ctx, span := otel.Tracer("ai-relay-bot/imagegen").Start(ctx, "imagegen.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("image.model", req.Model),
		attribute.Int("image.width", req.Width),
		attribute.Int("image.height", req.Height),
	)

	img, err := p.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Classify(err))
		return Image{}, err
	}
	span.SetAttributes(attribute.Int("image.bytes", len(img.Data)))
	return img, nil
}

func (p *Pool) run(ctx context.Context, req Request) (Image, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Image{}, fmt.Errorf("wait for image worker: %w", err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, p.timeout)
	results := make(chan jobResult, 1)

	go func() {
		defer p.sem.Release(1)
		defer cancel()
		img, err := p.gen.Generate(jobCtx, req)
		results <- jobResult{image: img, err: err}
	}()

	select {
	case r := <-results:
		return r.image, r.err
	case <-jobCtx.Done():
		// The worker cancels after sending, so a finished job is already buffered.
		select {
		case r := <-results:
			return r.image, r.err
		default:
		}
		return Image{}, fmt.Errorf("image generation aborted after %s: %w", p.timeout, jobCtx.Err())
	}
}
