package intent

import (
	"strings"

	"ai-relay-bot/internal/constant"
)

// Size bounds applied to every decision.
const (
	DefaultWidth  = 1024
	DefaultHeight = 1024
	MinDimension  = 64
	MaxDimension  = 4096
)

// Decision is the normalized outcome of one model invocation.
// It lives for a single request/response cycle and is never persisted.
type Decision struct {
	NeedImage   bool   `json:"need_image"`
	ImagePrompt string `json:"image_prompt"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Reply       string `json:"reply"`
}

// WantsImage reports whether the dispatcher should call the image backend.
func (d Decision) WantsImage() bool {
	return d.NeedImage && d.ImagePrompt != ""
}

// DisplayReply is the text actually shown to the user: the trimmed reply, or a
// sentinel when the model produced nothing.
func (d Decision) DisplayReply() string {
	reply := strings.TrimSpace(d.Reply)
	if reply == "" {
		return constant.RelayEmptyReplySentinel
	}
	return reply
}

// Clamp bounds a dimension to [MinDimension, MaxDimension].
func Clamp(v int) int {
	if v < MinDimension {
		return MinDimension
	}
	if v > MaxDimension {
		return MaxDimension
	}
	return v
}

// Fallback builds the plain-reply decision used when the model ignored the
// structured output contract.
func Fallback(raw string) Decision {
	return Decision{
		NeedImage:   false,
		ImagePrompt: "",
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Reply:       raw,
	}
}

// normalize enforces the decision invariants after decoding.
func (d *Decision) normalize() {
	if d.Width <= 0 {
		d.Width = DefaultWidth
	}
	if d.Height <= 0 {
		d.Height = DefaultHeight
	}
	d.Width = Clamp(d.Width)
	d.Height = Clamp(d.Height)
	if !d.NeedImage {
		d.ImagePrompt = ""
	}
}
