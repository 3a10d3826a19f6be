package nav350

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/sicknav/protocol"
)

// Result holds the named fields of a decoded reply. Optional sections are nested
// map[string]interface{} values (nil when absent) and repeated sections are
// []map[string]interface{}.
type Result map[string]interface{}

// DecodeResult maps a Result onto a struct tagged with mapstructure tags.
func DecodeResult(result Result, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return errors.Wrap(decoder.Decode(map[string]interface{}(result)), "decoding reply")
}

// tokens walks the arguments of a reply.
type tokens struct {
	command string
	toks    []string
	pos     int
}

func newTokens(tel protocol.Telegram) *tokens {
	return &tokens{command: tel.Command, toks: tel.Args()}
}

func (t *tokens) remaining() int {
	return len(t.toks) - t.pos
}

func (t *tokens) next(what string) (string, error) {
	if t.pos >= len(t.toks) {
		return "", errors.Errorf("%s reply ended before %s", t.command, what)
	}
	tok := t.toks[t.pos]
	t.pos++
	return tok, nil
}

func (t *tokens) uint(what string) (uint64, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	v, err := protocol.ParseUint(tok)
	return v, errors.Wrapf(err, "%s reply field %s", t.command, what)
}

func (t *tokens) int(what string) (int64, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	v, err := protocol.ParseInt(tok)
	return v, errors.Wrapf(err, "%s reply field %s", t.command, what)
}

func (t *tokens) float32(what string) (float32, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	v, err := protocol.ParseFloat32(tok)
	return v, errors.Wrapf(err, "%s reply field %s", t.command, what)
}

// str reads a length prefixed string, which may span several tokens.
func (t *tokens) str(what string) (string, error) {
	n, err := t.uint(what + " length")
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for uint64(sb.Len()) < n {
		tok, err := t.next(what)
		if err != nil {
			return "", err
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
	}
	return sb.String(), nil
}

// A fieldDecoder reads one or more fields of a reply into r.
type fieldDecoder func(t *tokens, r map[string]interface{}) error

func uintField(name string) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		v, err := t.uint(name)
		r[name] = v
		return err
	}
}

func intField(name string) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		v, err := t.int(name)
		r[name] = v
		return err
	}
}

func floatField(name string) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		v, err := t.float32(name)
		r[name] = v
		return err
	}
}

func stringField(name string) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		v, err := t.str(name)
		r[name] = v
		return err
	}
}

// tokenField reads a single raw token, such as a channel name.
func tokenField(name string) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		v, err := t.next(name)
		r[name] = v
		return err
	}
}

// uintArray reads a count followed by that many unsigned values.
func uintArray(name string) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		n, err := t.uint(name + " count")
		if err != nil {
			return err
		}
		if n > uint64(t.remaining()) {
			return errors.Errorf("%s reply announces %d %s values but carries %d", t.command, n, name, t.remaining())
		}
		values := make([]uint64, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := t.uint(name)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		r[name] = values
		return nil
	}
}

// optional reads a presence flag and, when set, the nested fields.
func optional(name string, fields ...fieldDecoder) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		present, err := t.uint(name + " flag")
		if err != nil {
			return err
		}
		if present == 0 {
			r[name] = nil
			return nil
		}
		sub := map[string]interface{}{}
		r[name] = sub
		return decodeFields(t, sub, fields)
	}
}

// repeated reads a count and that many groups of nested fields.
func repeated(name string, fields ...fieldDecoder) fieldDecoder {
	return func(t *tokens, r map[string]interface{}) error {
		n, err := t.uint(name + " count")
		if err != nil {
			return err
		}
		// every group takes at least one token
		if len(fields) > 0 && n > uint64(t.remaining()) {
			return errors.Errorf("%s reply announces %d %s but carries %d values", t.command, n, name, t.remaining())
		}
		items := make([]map[string]interface{}, 0, n)
		for i := uint64(0); i < n; i++ {
			sub := map[string]interface{}{}
			if err := decodeFields(t, sub, fields); err != nil {
				return err
			}
			items = append(items, sub)
		}
		r[name] = items
		return nil
	}
}

func decodeFields(t *tokens, r map[string]interface{}, fields []fieldDecoder) error {
	for _, f := range fields {
		if err := f(t, r); err != nil {
			return err
		}
	}
	return nil
}

// An argEncoder turns a caller supplied value into one or more telegram tokens.
type argEncoder func(v interface{}) (string, error)

// uintArg encodes an unsigned field of the given bit width as hex.
func uintArg(name string, bits int) argEncoder {
	return func(v interface{}) (string, error) {
		u, err := unsignedValue(name, bits, v)
		if err != nil {
			return "", err
		}
		return protocol.FormatUint(u), nil
	}
}

// hexByteArg encodes a value as two hex digits, the form of the access level.
func hexByteArg(name string) argEncoder {
	return func(v interface{}) (string, error) {
		u, err := unsignedValue(name, 8, v)
		if err != nil {
			return "", err
		}
		s := protocol.FormatUint(u)
		if len(s) < 2 {
			s = "0" + s
		}
		return s, nil
	}
}

// unsignedValue converts v and checks it fits in bits. Weak decoding into an unsigned type
// would wrap negative values, so they are decoded signed first.
func unsignedValue(name string, bits int, v interface{}) (uint64, error) {
	var i int64
	if err := mapstructure.WeakDecode(v, &i); err != nil {
		return 0, errors.Wrapf(err, "argument %s", name)
	}
	if i < 0 {
		return 0, errors.Errorf("argument %s must not be negative, got %d", name, i)
	}
	if bits < 64 && uint64(i) >= 1<<uint(bits) {
		return 0, errors.Errorf("argument %s does not fit in %d bits, got %d", name, bits, i)
	}
	return uint64(i), nil
}

// rawArg passes a string token through unchanged.
func rawArg(name string) argEncoder {
	return func(v interface{}) (string, error) {
		s, ok := v.(string)
		if !ok || s == "" || strings.ContainsAny(s, " \x02\x03") {
			return "", errors.Errorf("argument %s must be a single token, got %v", name, v)
		}
		return s, nil
	}
}
