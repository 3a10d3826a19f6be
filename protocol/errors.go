package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrIO means the connection to the device is broken. It is fatal to a session: the
	// connection has to be torn down and opened again.
	ErrIO = errors.New("device i/o failure")
	// ErrTimeout means no reply (or no data) arrived before the deadline. The same request may be
	// issued again.
	ErrTimeout = errors.New("timed out waiting for device")
	// ErrChecksum is returned by Extract when a frame's checksum does not match its payload.
	ErrChecksum = errors.New("frame checksum mismatch")
	// ErrPayloadTooLarge is returned when a payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("frame payload too large")
)

// DeviceError is the device's own error report, an sFA telegram.
type DeviceError struct {
	// Context is the raw telegram body following the sFA prefix.
	Context string
	// Code is the CoLa error code when the body carries one, otherwise -1.
	Code int
}

// NewDeviceError builds a DeviceError from the body of an error telegram.
func NewDeviceError(body string) *DeviceError {
	body = strings.TrimSpace(body)
	de := &DeviceError{Context: body, Code: -1}
	if code, err := strconv.ParseUint(body, 16, 8); err == nil {
		de.Code = int(code)
	}
	return de
}

// Description returns the device's name for the error code, if known.
func (e *DeviceError) Description() string {
	if desc, ok := colaErrorDescriptions[e.Code]; ok {
		return desc
	}
	return ""
}

func (e *DeviceError) Error() string {
	if desc := e.Description(); desc != "" {
		return fmt.Sprintf("device error %d (%s)", e.Code, desc)
	}
	return fmt.Sprintf("device error: %s", e.Context)
}

// IsDeviceError returns the DeviceError wrapped by err, if any.
func IsDeviceError(err error) (*DeviceError, bool) {
	var de *DeviceError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var colaErrorDescriptions = map[int]string{
	0x01: "Sopas_Error_METHODIN_ACCESSDENIED",
	0x02: "Sopas_Error_METHODIN_UNKNOWNINDEX",
	0x03: "Sopas_Error_VARIABLE_UNKNOWNINDEX",
	0x04: "Sopas_Error_LOCALCONDITIONFAILED",
	0x05: "Sopas_Error_INVALID_DATA",
	0x06: "Sopas_Error_UNKNOWN_ERROR",
	0x07: "Sopas_Error_BUFFER_OVERFLOW",
	0x08: "Sopas_Error_BUFFER_UNDERFLOW",
	0x09: "Sopas_Error_ERROR_UNKNOWN_TYPE",
	0x0A: "Sopas_Error_VARIABLE_WRITE_ACCESSDENIED",
	0x0B: "Sopas_Error_UNKNOWN_CMD_FOR_NAMESERVER",
	0x0C: "Sopas_Error_UNKNOWN_COLA_COMMAND",
	0x0D: "Sopas_Error_METHODIN_SERVER_BUSY",
	0x0E: "Sopas_Error_FLEX_OUT_OF_BOUNDS",
	0x0F: "Sopas_Error_EVENTREG_UNKNOWNINDEX",
	0x10: "Sopas_Error_COLA_A_VALUE_OVERFLOW",
	0x11: "Sopas_Error_COLA_A_INVALID_CHARACTER",
	0x12: "Sopas_Error_OSAI_NO_MESSAGE",
	0x13: "Sopas_Error_OSAI_NO_ANSWER_MESSAGE",
	0x14: "Sopas_Error_INTERNAL",
	0x15: "Sopas_Error_HubAddressCorrupted",
	0x16: "Sopas_Error_HubAddressDecoding",
	0x17: "Sopas_Error_HubAddressAddressExceeded",
	0x18: "Sopas_Error_HubAddressBlankExpected",
	0x19: "Sopas_Error_AsyncMethodsAreSuppressed",
	0x20: "Sopas_Error_ComplexArraysNotSupported",
}
