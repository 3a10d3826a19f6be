package nav350

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/sicknav/protocol"
)

func decode(t *testing.T, payload string, fields ...fieldDecoder) (Result, error) {
	t.Helper()
	r := Result{}
	err := decodeFields(newTokens(protocol.Classify([]byte(payload))), r, fields)
	return r, err
}

func TestDecodeScalars(t *testing.T) {
	r, err := decode(t, "sRA Test FF -12 3F800000 raw",
		uintField("u"), intField("i"), floatField("f"), tokenField("tok"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r["u"], test.ShouldEqual, uint64(255))
	test.That(t, r["i"], test.ShouldEqual, int64(-12))
	test.That(t, r["f"], test.ShouldEqual, float32(1))
	test.That(t, r["tok"], test.ShouldEqual, "raw")

	_, err = decode(t, "sRA Test FF", uintField("a"), uintField("b"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ended before b")

	_, err = decode(t, "sRA Test nothex", uintField("a"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeStringSpansTokens(t *testing.T) {
	r, err := decode(t, "sRA DeviceInfo 16 NAV350-3232 Navigation 1", stringField("info"), uintField("after"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r["info"], test.ShouldEqual, "NAV350-3232 Navigation")
	test.That(t, r["after"], test.ShouldEqual, uint64(1))
}

func TestDecodeOptionalAndRepeated(t *testing.T) {
	fields := []fieldDecoder{
		optional("pose", intField("x"), intField("y")),
		repeated("items", uintField("id"), uintArray("data")),
	}
	r, err := decode(t, "sAN Test 0 2 1 1 A 2 0", fields...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r["pose"], test.ShouldBeNil)
	items := r["items"].([]map[string]interface{})
	test.That(t, items, test.ShouldHaveLength, 2)
	test.That(t, items[0]["data"], test.ShouldResemble, []uint64{10})
	test.That(t, items[1]["data"], test.ShouldResemble, []uint64{})

	r, err = decode(t, "sAN Test 1 +5 -5 0", fields...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r["pose"], test.ShouldResemble, map[string]interface{}{"x": int64(5), "y": int64(-5)})

	_, err = decode(t, "sAN Test 0 1 1 5 1 2", fields...)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "announces 5")
}

func TestDecodeRejectsOversizedCounts(t *testing.T) {
	_, err := decode(t, "sAN Test FFFFFFFFFFFFFFFF 1 2", uintArray("data"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "carries 2")

	_, err = decode(t, "sAN Test FFFFFFFF 1 2", repeated("items", uintField("id")))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "announces 4294967295 items")

	r, err := decode(t, "sAN Test 2 1 2", repeated("items", uintField("id")))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r["items"], test.ShouldHaveLength, 2)
}

func TestDecodeResult(t *testing.T) {
	var out struct {
		Name  string `mapstructure:"name"`
		Count int    `mapstructure:"count"`
	}
	test.That(t, DecodeResult(Result{"name": "nav", "count": uint64(3)}, &out), test.ShouldBeNil)
	test.That(t, out.Name, test.ShouldEqual, "nav")
	test.That(t, out.Count, test.ShouldEqual, 3)
}

func TestArgEncoders(t *testing.T) {
	tok, err := uintArg("n", 8)(250)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tok, test.ShouldEqual, "FA")

	tok, err = uintArg("n", 16)("1440")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tok, test.ShouldEqual, "5A0")

	_, err = uintArg("layer", 16)(-1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "negative")
	_, err = uintArg("n", 8)(256)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "8 bits")

	tok, err = hexByteArg("level")(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tok, test.ShouldEqual, "03")
	_, err = hexByteArg("level")(-3)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = uintArg("n", 8)("lots")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = rawArg("password")(12)
	test.That(t, err, test.ShouldNotBeNil)
	tok, err = rawArg("password")("F4724744")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tok, test.ShouldEqual, "F4724744")
}
