package protocol_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/sicknav/protocol"
)

func TestEncodeExtractRoundTrip(t *testing.T) {
	for _, payload := range []string{
		"sRN DeviceIdent",
		"sMN SetAccessMode 03 F4724744",
		"sAN mNEVAChangeState 0 4",
		"",
	} {
		t.Run(payload, func(t *testing.T) {
			frame, err := protocol.Encode([]byte(payload))
			test.That(t, err, test.ShouldBeNil)
			test.That(t, frame[0], test.ShouldEqual, protocol.STX)
			test.That(t, frame[len(frame)-1], test.ShouldEqual, protocol.ETX)
			test.That(t, frame[len(frame)-2], test.ShouldEqual, protocol.Checksum([]byte(payload)))

			got, n, err := protocol.Extract(frame)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, n, test.ShouldEqual, len(frame))
			test.That(t, string(got), test.ShouldEqual, payload)
		})
	}
}

func TestChecksum(t *testing.T) {
	test.That(t, protocol.Checksum(nil), test.ShouldEqual, byte(0))
	test.That(t, protocol.Checksum([]byte{0x01, 0x02}), test.ShouldEqual, byte(0x03))
	test.That(t, protocol.Checksum([]byte("AA")), test.ShouldEqual, byte(0))
}

func TestEncodeTooLarge(t *testing.T) {
	_, err := protocol.Encode(bytes.Repeat([]byte{'a'}, protocol.MaxPayloadSize+1))
	test.That(t, errors.Is(err, protocol.ErrPayloadTooLarge), test.ShouldBeTrue)

	_, err = protocol.Encode(bytes.Repeat([]byte{'a'}, protocol.MaxPayloadSize))
	test.That(t, err, test.ShouldBeNil)
}

func TestExtractConcatenated(t *testing.T) {
	a, err := protocol.Encode([]byte("sRA DeviceIdent 8 NAV350-3232 10 V1.0.0"))
	test.That(t, err, test.ShouldBeNil)
	b, err := protocol.Encode([]byte("sAN mNEVAChangeState 0 1"))
	test.That(t, err, test.ShouldBeNil)
	buf := append(append([]byte{}, a...), b...)

	got, n, err := protocol.Extract(buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(got), test.ShouldEqual, "sRA DeviceIdent 8 NAV350-3232 10 V1.0.0")
	test.That(t, n, test.ShouldEqual, len(a))
	buf = buf[n:]

	got, n, err = protocol.Extract(buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(got), test.ShouldEqual, "sAN mNEVAChangeState 0 1")
	test.That(t, n, test.ShouldEqual, len(b))
	buf = buf[n:]

	got, n, err = protocol.Extract(buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)
}

func TestExtractIncomplete(t *testing.T) {
	buf := []byte{protocol.STX}
	for i := 0; i < 3; i++ {
		got, n, err := protocol.Extract(buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 0)
	}

	frame, err := protocol.Encode([]byte("sMA mNEVAChangeState"))
	test.That(t, err, test.ShouldBeNil)
	for cut := 1; cut < len(frame); cut++ {
		got, n, err := protocol.Extract(frame[:cut])
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 0)
	}
}

func TestExtractGarbage(t *testing.T) {
	got, n, err := protocol.Extract([]byte("noise without a start"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, len("noise without a start"))

	frame, err := protocol.Encode([]byte("sRA SerialNumber 8 12345678"))
	test.That(t, err, test.ShouldBeNil)
	buf := append([]byte("xyz"), frame...)
	got, n, err = protocol.Extract(buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(got), test.ShouldEqual, "sRA SerialNumber 8 12345678")
	test.That(t, n, test.ShouldEqual, len(buf))

	// garbage ahead of a partial frame is reported as consumed
	got, n, err = protocol.Extract(append([]byte("xyz"), frame[:4]...))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 3)
}

func TestExtractCorruptionResync(t *testing.T) {
	bad, err := protocol.Encode([]byte("sRN DeviceIdent"))
	test.That(t, err, test.ShouldBeNil)
	// 'D' -> 'E' flips the lowest bit of the payload checksum
	bad[5] ^= 0x01

	_, n, err := protocol.Extract(bad)
	test.That(t, errors.Is(err, protocol.ErrChecksum), test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 1)

	good, err := protocol.Encode([]byte("sRA DeviceIdent 0"))
	test.That(t, err, test.ShouldBeNil)
	buf := append(append([]byte{}, bad...), good...)

	var frames []string
	for len(buf) > 0 {
		payload, n, err := protocol.Extract(buf)
		if err != nil {
			test.That(t, errors.Is(err, protocol.ErrChecksum), test.ShouldBeTrue)
		}
		test.That(t, n, test.ShouldBeGreaterThan, 0)
		if payload != nil {
			frames = append(frames, string(payload))
		}
		buf = buf[n:]
	}
	test.That(t, frames, test.ShouldResemble, []string{"sRA DeviceIdent 0"})
}

func TestExtractChecksumIsETX(t *testing.T) {
	// the payload XORs to 0x03, so the checksum byte looks like an end delimiter
	payload := []byte("sAN a>")
	test.That(t, protocol.Checksum(payload), test.ShouldEqual, protocol.ETX)

	frame, err := protocol.Encode(payload)
	test.That(t, err, test.ShouldBeNil)

	got, n, err := protocol.Extract(frame[:len(frame)-1])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)

	got, n, err = protocol.Extract(frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(got), test.ShouldEqual, string(payload))
	test.That(t, n, test.ShouldEqual, len(frame))
}

func TestExtractOversize(t *testing.T) {
	buf := make([]byte, 0, protocol.MaxFrameSize+2)
	buf = append(buf, protocol.STX)
	buf = append(buf, bytes.Repeat([]byte{'a'}, protocol.MaxFrameSize)...)

	_, n, err := protocol.Extract(buf)
	test.That(t, errors.Is(err, protocol.ErrPayloadTooLarge), test.ShouldBeTrue)
	test.That(t, n, test.ShouldEqual, 1)
}
