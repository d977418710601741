package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Command prefixes. Clear and help must match the whole message.
const (
	PrefixClear     = "/clear"
	PrefixHelp      = "/help"
	PrefixCreatePic = "/create_pic"
)

// Kind is the routing class of an inbound message.
type Kind string

const (
	KindChat      Kind = "CHAT"
	KindClear     Kind = "CLEAR"
	KindHelp      Kind = "HELP"
	KindCreatePic Kind = "CREATE_PIC"
)

var (
	// ErrMalformedCommand means the text does not follow the command grammar.
	ErrMalformedCommand = errors.New("malformed command")
	// ErrInvalidArguments means the grammar matched but a value is out of range.
	ErrInvalidArguments = errors.New("invalid command arguments")
)

// ManualImageRequest is a /create_pic request. It bypasses the language model
// and never touches session history.
type ManualImageRequest struct {
	Model  string `validate:"required"`
	Width  int    `validate:"gt=0,lte=4096"`
	Height int    `validate:"gt=0,lte=4096"`
	Prompt string `validate:"required"`
}

// Command is a classified inbound message.
type Command struct {
	Kind    Kind
	Text    string
	Request *ManualImageRequest // set for KindCreatePic
}

var validate = validator.New()

// Parse classifies text. Only /create_pic can fail; the error wraps either
// ErrMalformedCommand or ErrInvalidArguments.
func Parse(text string) (Command, error) {
	switch {
	case text == PrefixClear:
		return Command{Kind: KindClear, Text: text}, nil
	case text == PrefixHelp:
		return Command{Kind: KindHelp, Text: text}, nil
	case strings.HasPrefix(text, PrefixCreatePic):
		req, err := ParseCreatePic(text)
		if err != nil {
			return Command{Kind: KindCreatePic, Text: text}, err
		}
		return Command{Kind: KindCreatePic, Text: text, Request: req}, nil
	default:
		return Command{Kind: KindChat, Text: text}, nil
	}
}

// ParseCreatePic reads "/create_pic <model> <width> <height> <prompt...>".
// The prompt is the rest of the text verbatim, newlines included.
func ParseCreatePic(text string) (*ManualImageRequest, error) {
	if !strings.HasPrefix(text, PrefixCreatePic) {
		return nil, fmt.Errorf("%w: missing %s prefix", ErrMalformedCommand, PrefixCreatePic)
	}
	s := scanner{rest: text[len(PrefixCreatePic):]}

	model, ok := s.field(isNotSpace)
	if !ok {
		return nil, fmt.Errorf("%w: expected model", ErrMalformedCommand)
	}
	widthText, ok := s.field(isDigit)
	if !ok {
		return nil, fmt.Errorf("%w: expected numeric width", ErrMalformedCommand)
	}
	heightText, ok := s.field(isDigit)
	if !ok {
		return nil, fmt.Errorf("%w: expected numeric height", ErrMalformedCommand)
	}
	prompt, ok := s.remainder()
	if !ok {
		return nil, fmt.Errorf("%w: expected prompt", ErrMalformedCommand)
	}

	width, err := strconv.Atoi(widthText)
	if err != nil {
		return nil, fmt.Errorf("%w: width %s: %v", ErrInvalidArguments, widthText, err)
	}
	height, err := strconv.Atoi(heightText)
	if err != nil {
		return nil, fmt.Errorf("%w: height %s: %v", ErrInvalidArguments, heightText, err)
	}

	req := &ManualImageRequest{Model: model, Width: width, Height: height, Prompt: prompt}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return req, nil
}

// scanner walks whitespace-separated fields. Every field must be preceded by
// at least one whitespace rune and be followed by whitespace.
type scanner struct {
	rest string
}

func (s *scanner) skipSpace() bool {
	trimmed := strings.TrimLeftFunc(s.rest, unicode.IsSpace)
	skipped := len(trimmed) < len(s.rest)
	s.rest = trimmed
	return skipped
}

func (s *scanner) field(accept func(rune) bool) (string, bool) {
	if !s.skipSpace() {
		return "", false
	}
	end := strings.IndexFunc(s.rest, unicode.IsSpace)
	if end <= 0 {
		return "", false
	}
	tok := s.rest[:end]
	for _, r := range tok {
		if !accept(r) {
			return "", false
		}
	}
	s.rest = s.rest[end:]
	return tok, true
}

func (s *scanner) remainder() (string, bool) {
	if !s.skipSpace() || s.rest == "" {
		return "", false
	}
	return s.rest, utf8.ValidString(s.rest)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNotSpace(r rune) bool {
	return !unicode.IsSpace(r)
}
