package protocol

import (
	"strings"
)

// Kind is the type of a telegram, decided by its three letter prefix.
type Kind int

// The telegram kinds.
const (
	KindUnknown Kind = iota
	KindRequestMethod
	KindAcknowledge
	KindRequestRead
	KindWrite
	KindResponse
	KindResult
	KindError
)

var prefixKinds = map[string]Kind{
	"sMN": KindRequestMethod,
	"sMA": KindAcknowledge,
	"sRN": KindRequestRead,
	"sWN": KindWrite,
	"sRA": KindResponse,
	"sWA": KindResponse,
	"sAN": KindResult,
	"sFA": KindError,
}

func (k Kind) String() string {
	switch k {
	case KindRequestMethod:
		return "REQUEST_METHOD"
	case KindAcknowledge:
		return "ACKNOWLEDGE"
	case KindRequestRead:
		return "REQUEST_READ"
	case KindWrite:
		return "WRITE"
	case KindResponse:
		return "RESPONSE"
	case KindResult:
		return "RESULT"
	case KindError:
		return "ERROR"
	case KindUnknown:
	}
	return "UNKNOWN"
}

// Prefix returns the wire prefix used to send a request of this kind.
func (k Kind) Prefix() string {
	switch k {
	case KindRequestMethod:
		return "sMN"
	case KindRequestRead:
		return "sRN"
	case KindWrite:
		return "sWN"
	case KindAcknowledge:
		return "sMA"
	case KindResponse:
		return "sRA"
	case KindResult:
		return "sAN"
	case KindError:
		return "sFA"
	case KindUnknown:
	}
	return ""
}

// IsReply reports whether telegrams of this kind answer a request.
func (k Kind) IsReply() bool {
	return k == KindResponse || k == KindResult
}

// Telegram is the decoded meaning of a frame's payload.
type Telegram struct {
	Kind Kind
	// Prefix is the prefix token as received, e.g. "sWA".
	Prefix string
	// Command is the command name. It is empty for KindError.
	Command string
	// Body is the remaining argument text.
	Body string
}

// Args splits the body into its space separated tokens.
func (t Telegram) Args() []string {
	return strings.Fields(t.Body)
}

func (t Telegram) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Prefix, t.Command, t.Body} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Classify decodes a frame payload into a telegram.
func Classify(payload []byte) Telegram {
	text := trimLeadingControl(string(payload))

	prefix, rest, _ := strings.Cut(text, " ")
	core := prefix
	if len(core) > 3 {
		core = core[:3]
	}
	kind, ok := prefixKinds[core]
	if !ok {
		kind = KindUnknown
	}

	if kind == KindError {
		return Telegram{Kind: kind, Prefix: prefix, Body: rest}
	}
	command, body, _ := strings.Cut(rest, " ")
	return Telegram{Kind: kind, Prefix: prefix, Command: command, Body: body}
}

// trimLeadingControl drops framing artifacts (control bytes) ahead of the prefix token.
func trimLeadingControl(text string) string {
	return strings.TrimLeftFunc(text, func(r rune) bool {
		return r < 0x20 || r == 0x7f
	})
}
