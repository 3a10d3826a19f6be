// Package protocol implements the framing and telegram classification of the SICK NAV350
// command channel.
//
// A frame on the wire is
//
//	STX(0x02) | payload | checksum | ETX(0x03)
//
// where the payload is space separated ASCII text and the checksum is the XOR of every payload
// byte.
package protocol

import (
	"bytes"

	"github.com/pkg/errors"
)

const (
	// STX starts a frame.
	STX byte = 0x02
	// ETX ends a frame.
	ETX byte = 0x03

	// MaxPayloadSize is the largest payload a frame may carry.
	MaxPayloadSize = 100000
	// MaxFrameSize is MaxPayloadSize plus the delimiters and the checksum.
	MaxFrameSize = MaxPayloadSize + 3
)

// Checksum is the XOR of all bytes of data.
func Checksum(data []byte) byte {
	var checksum byte
	for _, b := range data {
		checksum ^= b
	}
	return checksum
}

// Encode wraps payload into a frame.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes (max %d)", len(payload), MaxPayloadSize)
	}
	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, STX)
	frame = append(frame, payload...)
	frame = append(frame, Checksum(payload), ETX)
	return frame, nil
}

// Extract looks for the first complete frame in buf and returns its payload together with the
// number of leading bytes of buf that are consumed and should be dropped by the caller.
//
// A nil payload and a nil error means no complete frame is present yet; n may still be non-zero
// if there were bytes ahead of the first start delimiter. On ErrChecksum or ErrPayloadTooLarge,
// n points just past the offending start delimiter so that the next call resynchronizes.
func Extract(buf []byte) (payload []byte, n int, err error) {
	start := bytes.IndexByte(buf, STX)
	if start < 0 {
		return nil, len(buf), nil
	}

	// The payload is printable text, so the first ETX byte after the start is either the end
	// delimiter or the checksum itself when the checksum happens to be 0x03.
	rel := bytes.IndexByte(buf[start+1:], ETX)
	if rel < 0 {
		if len(buf)-start > MaxFrameSize {
			return nil, start + 1, errors.Wrapf(ErrPayloadTooLarge, "no end of frame after %d bytes", len(buf)-start)
		}
		return nil, start, nil
	}
	etx := start + 1 + rel

	// ETX is the end delimiter: checksum is the byte right before it.
	if etx-start >= 2 {
		body := buf[start+1 : etx-1]
		if Checksum(body) == buf[etx-1] {
			return copyBytes(body), etx + 1, nil
		}
	}

	// ETX is the checksum: the end delimiter must follow it.
	body := buf[start+1 : etx]
	if Checksum(body) == ETX {
		if etx+1 >= len(buf) {
			return nil, start, nil
		}
		if buf[etx+1] == ETX {
			return copyBytes(body), etx + 2, nil
		}
	}

	return nil, start + 1, errors.Wrapf(ErrChecksum, "frame of %d bytes", etx-start+1)
}

func copyBytes(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
