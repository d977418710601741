package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Parse failure reasons.
const (
	ReasonMalformedJSON = "malformed_json"
	ReasonNotAnObject   = "not_an_object"
	ReasonMissingField  = "missing_field"
	ReasonInvalidReply  = "invalid_reply"
)

var fencedJSONPattern = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// ParseError describes why a completion could not be read as a decision.
type ParseError struct {
	Reason string
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "intent: " + e.Reason
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of Parse. Decision is always usable; FellBack and Err
// tell whether it came from the structured path or the plain-reply fallback.
type Result struct {
	Decision Decision
	FellBack bool
	Err      error
}

// Parse turns a raw model completion into a decision. It never fails: any
// decoding problem degrades to Fallback(raw).
func Parse(raw string) Result {
	decision, err := Decode(raw)
	if err != nil {
		return Result{Decision: Fallback(raw), FellBack: true, Err: err}
	}
	return Result{Decision: decision}
}

// Decode is the strict path of Parse. The JSON source is the first fenced
// ```json block when present, otherwise the whole completion.
func Decode(raw string) (Decision, error) {
	source := []byte(extractJSON(raw))

	if !json.Valid(source) {
		return Decision{}, &ParseError{Reason: ReasonMalformedJSON, Err: errors.New("invalid JSON document")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(source, &fields); err != nil || fields == nil {
		return Decision{}, &ParseError{Reason: ReasonNotAnObject, Err: err}
	}

	for _, key := range []string{"need_image", "reply"} {
		if _, ok := fields[key]; !ok {
			return Decision{}, &ParseError{Reason: ReasonMissingField, Field: key}
		}
	}

	// null decodes into a string without error, so it is rejected explicitly.
	if strings.TrimSpace(string(fields["reply"])) == "null" {
		return Decision{}, &ParseError{Reason: ReasonInvalidReply, Field: "reply", Err: errors.New("reply is null")}
	}
	var reply string
	if err := json.Unmarshal(fields["reply"], &reply); err != nil {
		return Decision{}, &ParseError{Reason: ReasonInvalidReply, Field: "reply", Err: err}
	}

	decision := Decision{
		NeedImage:   truthy(fields["need_image"]),
		ImagePrompt: stringField(fields["image_prompt"]),
		Width:       dimensionField(fields["width"]),
		Height:      dimensionField(fields["height"]),
		Reply:       reply,
	}
	decision.normalize()

	return decision, nil
}

func extractJSON(raw string) string {
	if m := fencedJSONPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// truthy follows JSON-value truthiness: false, null, 0, "" and empty
// containers are false.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return false
	}
}

func stringField(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// dimensionField returns the integer value of a width/height field, or 0 when
// the field is absent or not an integer literal. Out-of-range positive
// literals saturate so that clamping still applies.
func dimensionField(raw json.RawMessage) int {
	text := strings.TrimSpace(string(raw))
	if text == "" || strings.ContainsAny(text, ".eE\"") {
		return 0
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && !strings.HasPrefix(text, "-") {
			return MaxDimension
		}
		return 0
	}
	if v > MaxDimension {
		return MaxDimension
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

// String renders a decision for logs.
func (d Decision) String() string {
	return fmt.Sprintf("need_image=%t size=%dx%d prompt_len=%d reply_len=%d",
		d.NeedImage, d.Width, d.Height, len(d.ImagePrompt), len(d.Reply))
}
