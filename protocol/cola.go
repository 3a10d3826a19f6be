package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EncodeTelegram builds the payload "<prefix> <command> <args...>" and frames it.
func EncodeTelegram(kind Kind, command string, args ...string) ([]byte, error) {
	prefix := kind.Prefix()
	if prefix == "" {
		return nil, errors.Errorf("cannot send a telegram of kind %s", kind)
	}
	if command == "" {
		return nil, errors.New("telegram command name required")
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte(' ')
	sb.WriteString(command)
	for _, arg := range args {
		sb.WriteByte(' ')
		sb.WriteString(arg)
	}
	return Encode([]byte(sb.String()))
}

// FormatUint encodes an unsigned value the way the device expects: upper case hex.
func FormatUint(v uint64) string {
	return strings.ToUpper(strconv.FormatUint(v, 16))
}

// FormatInt encodes a signed value as an explicitly signed decimal, e.g. "+12" or "-3".
func FormatInt(v int64) string {
	if v >= 0 {
		return "+" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

// ParseUint decodes an unsigned token. Plain tokens are hex; tokens with a sign are decimal.
func ParseUint(token string) (uint64, error) {
	if strings.HasPrefix(token, "+") {
		v, err := strconv.ParseUint(token[1:], 10, 64)
		return v, errors.Wrapf(err, "bad unsigned token %q", token)
	}
	v, err := strconv.ParseUint(token, 16, 64)
	return v, errors.Wrapf(err, "bad unsigned token %q", token)
}

// ParseInt decodes a signed token. Tokens with a sign are decimal; plain tokens are hex and
// interpreted as two's complement 32 bit values.
func ParseInt(token string) (int64, error) {
	if strings.HasPrefix(token, "+") || strings.HasPrefix(token, "-") {
		v, err := strconv.ParseInt(token, 10, 64)
		return v, errors.Wrapf(err, "bad signed token %q", token)
	}
	v, err := strconv.ParseUint(token, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad signed token %q", token)
	}
	return int64(int32(uint32(v))), nil
}

// FormatFloat32 encodes a float as the hex of its IEEE 754 bits.
func FormatFloat32(v float32) string {
	return fmt.Sprintf("%08X", math.Float32bits(v))
}

// ParseFloat32 decodes a float sent as the hex of its IEEE 754 bits.
func ParseFloat32(token string) (float32, error) {
	v, err := strconv.ParseUint(token, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad float token %q", token)
	}
	return math.Float32frombits(uint32(v)), nil
}

// FormatString encodes a string with its length prefix.
func FormatString(s string) string {
	return FormatUint(uint64(len(s))) + " " + s
}
