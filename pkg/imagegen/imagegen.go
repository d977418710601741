// Package imagegen talks to the remote image-generation backend and runs
// generation jobs off the message-handling path.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-relay-bot/pkg/failure"
)

// Request describes one image to generate.
type Request struct {
	Model  string
	Width  int
	Height int
	Prompt string
}

// Image is the generated payload with its declared content type.
type Image struct {
	Data        []byte
	ContentType string
}

// Extension maps the declared content type to a file extension.
func (i Image) Extension() string {
	ct := strings.ToLower(i.ContentType)
	switch {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

func (i Image) Filename() string {
	return "image" + i.Extension()
}

// Generator produces images.
type Generator interface {
	Generate(ctx context.Context, req Request) (Image, error)
}

// HTTPError is returned when the backend answers with an error status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("image backend returned HTTP %d", e.StatusCode)
}

// Failure classes reported to users.
const (
	ClassHTTP    = "HTTPError"
	ClassTimeout = failure.Timeout
	ClassCancel  = failure.Cancel
	ClassNetwork = failure.Network
	ClassGeneric = failure.Generic
)

// Classify returns a short failure class for err.
func Classify(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ClassHTTP
	}
	return failure.Classify(err)
}
