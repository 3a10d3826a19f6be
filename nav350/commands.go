package nav350

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/sicknav/protocol"
)

// Wire names of the device commands.
const (
	cmdDeviceIdent        = "DeviceIdent"
	cmdSerialNumber       = "SerialNumber"
	cmdFirmwareVersion    = "FirmwareVersion"
	cmdDeviceInfo         = "DeviceInfo"
	cmdSetAccessMode      = "SetAccessMode"
	cmdChangeState        = "mNEVAChangeState"
	cmdCurrLayer          = "NEVACurrLayer"
	cmdScanDataFormat     = "NAVScanDataFormat"
	cmdPoseDataFormat     = "NPOSPoseDataFormat"
	cmdLandmarkDataFormat = "NLMDLandmarkDataFormat"
	cmdReflSize           = "NLMDReflSize"
	cmdReflType           = "NLMDReflType"
	cmdSlidingMean        = "NPOSSlidingMean"
	cmdWriteAll           = "mEEwriteall"
	cmdBreak              = "mNAVBreak"
	cmdReset              = "mNAVReset"
	cmdGetTimestamp       = "mNAVGetTimestamp"
	cmdStoreLayout        = "mNLAYStoreLayout"
	cmdEraseLayout        = "mNLAYEraseLayout"
	cmdGetPose            = "mNPOSGetPose"
	cmdGetData            = "mNPOSGetData"
	cmdSectorFunction     = "SectorFunction"
	cmdGlobalConfig       = "GlobalConfig"
)

// command describes how one operation is sent and how its reply is read.
type command struct {
	kind  protocol.Kind
	wire  string
	args  []argEncoder
	reply []fieldDecoder
	// check inspects a decoded reply for a failure reported in its fields.
	check func(Result) error
}

var (
	poseFields = []fieldDecoder{
		intField("x"),
		intField("y"),
		uintField("phi"),
		optional("optional",
			uintField("output_mode"),
			uintField("timestamp"),
			intField("mean_deviation"),
			uintField("nav_mode"),
			uintField("info_state"),
			uintField("used_reflectors"),
		),
	}

	channelFields = []fieldDecoder{
		tokenField("content"),
		floatField("scale_factor"),
		floatField("scale_offset"),
		intField("start_angle"),
		uintField("angle_res"),
		uintField("timestamp"),
		uintArray("data"),
	}

	reflectorFields = []fieldDecoder{
		optional("cartesian", intField("x"), intField("y")),
		optional("polar", uintField("dist"), uintField("phi")),
		optional("optional",
			uintField("local_id"),
			uintField("global_id"),
			uintField("type"),
			uintField("sub_type"),
			uintField("quality"),
			uintField("timestamp"),
			uintField("size"),
			uintField("hit_count"),
			uintField("mean_echo"),
			uintField("start_index"),
			uintField("end_index"),
		),
	}
)

// commands is the table of every operation Execute knows, keyed by operation name.
var commands = map[string]command{
	"DeviceIdent": {
		kind:  protocol.KindRequestRead,
		wire:  cmdDeviceIdent,
		reply: []fieldDecoder{stringField("name"), stringField("version")},
	},
	"SerialNumber": {
		kind:  protocol.KindRequestRead,
		wire:  cmdSerialNumber,
		reply: []fieldDecoder{stringField("serial_number")},
	},
	"FirmwareVersion": {
		kind:  protocol.KindRequestRead,
		wire:  cmdFirmwareVersion,
		reply: []fieldDecoder{stringField("firmware_version")},
	},
	"DeviceInfo": {
		kind:  protocol.KindRequestRead,
		wire:  cmdDeviceInfo,
		reply: []fieldDecoder{stringField("device_info")},
	},
	"SetAccessMode": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdSetAccessMode,
		args:  []argEncoder{hexByteArg("level"), rawArg("password")},
		reply: []fieldDecoder{uintField("success")},
		check: checkSuccess(cmdSetAccessMode, 0x01),
	},
	"SetOperatingMode": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdChangeState,
		args:  []argEncoder{uintArg("mode", 8)},
		reply: []fieldDecoder{uintField("error_code"), uintField("mode")},
		check: checkErrorCode(cmdChangeState, changeStateErrors),
	},
	"GetCurrentLayer": {
		kind:  protocol.KindRequestRead,
		wire:  cmdCurrLayer,
		reply: []fieldDecoder{uintField("layer")},
	},
	"SetCurrentLayer": {
		kind: protocol.KindWrite,
		wire: cmdCurrLayer,
		args: []argEncoder{uintArg("layer", 16)},
	},
	"SetScanDataFormat": {
		kind: protocol.KindWrite,
		wire: cmdScanDataFormat,
		args: []argEncoder{uintArg("data_mode", 8), uintArg("show_rssi", 8)},
	},
	"SetPoseDataFormat": {
		kind: protocol.KindWrite,
		wire: cmdPoseDataFormat,
		args: []argEncoder{uintArg("output_mode", 8), uintArg("show_optional", 8)},
	},
	"SetLandmarkDataFormat": {
		kind: protocol.KindWrite,
		wire: cmdLandmarkDataFormat,
		args: []argEncoder{uintArg("format", 8), uintArg("show_optional", 8), uintArg("landmark_filter", 8)},
	},
	"SetReflectorSize": {
		kind: protocol.KindWrite,
		wire: cmdReflSize,
		args: []argEncoder{uintArg("size", 16)},
	},
	"SetReflectorType": {
		kind: protocol.KindWrite,
		wire: cmdReflType,
		args: []argEncoder{uintArg("type", 8)},
	},
	"SetSlidingMean": {
		kind: protocol.KindWrite,
		wire: cmdSlidingMean,
		args: []argEncoder{uintArg("mean", 8)},
	},
	"StoreData": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdWriteAll,
		reply: []fieldDecoder{uintField("success")},
		check: checkSuccess(cmdWriteAll, -1),
	},
	"BreakAsyncCall": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdBreak,
		reply: []fieldDecoder{uintField("success")},
		check: checkSuccess(cmdBreak, -1),
	},
	"ResetDevice": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdReset,
		reply: []fieldDecoder{uintField("success")},
		check: checkSuccess(cmdReset, -1),
	},
	"SyncTimestamp": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdGetTimestamp,
		reply: []fieldDecoder{uintField("success"), uintField("timestamp")},
		check: checkSuccess(cmdGetTimestamp, -1),
	},
	"StoreLayout": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdStoreLayout,
		reply: []fieldDecoder{uintField("error_code")},
		check: checkErrorCode(cmdStoreLayout, layoutErrors),
	},
	"EraseLayout": {
		kind:  protocol.KindRequestMethod,
		wire:  cmdEraseLayout,
		args:  []argEncoder{uintArg("erase_all", 8)},
		reply: []fieldDecoder{uintField("error_code")},
		check: checkErrorCode(cmdEraseLayout, layoutErrors),
	},
	"GetPose": {
		kind: protocol.KindRequestMethod,
		wire: cmdGetPose,
		args: []argEncoder{uintArg("wait", 8)},
		reply: []fieldDecoder{
			uintField("version"),
			uintField("error_code"),
			uintField("wait"),
			optional("pose", poseFields...),
		},
		check: checkErrorCode(cmdGetPose, poseErrors),
	},
	"GetPoseAndScan": {
		kind: protocol.KindRequestMethod,
		wire: cmdGetData,
		args: []argEncoder{uintArg("wait", 8), uintArg("dataset", 8)},
		reply: []fieldDecoder{
			uintField("version"),
			uintField("error_code"),
			uintField("wait"),
			uintField("mask"),
			optional("pose", poseFields...),
			optional("landmarks",
				uintField("filter"),
				repeated("reflectors", reflectorFields...),
			),
			repeated("scan", channelFields...),
			repeated("remission", channelFields...),
		},
		check: checkErrorCode(cmdGetData, poseErrors),
	},
	"SetSectorFunction": {
		kind: protocol.KindWrite,
		wire: cmdSectorFunction,
		args: []argEncoder{uintArg("index", 8), uintArg("function", 8), uintArg("stop_ticks", 16)},
	},
	"GetSectorFunction": {
		kind:  protocol.KindRequestRead,
		wire:  cmdSectorFunction,
		args:  []argEncoder{uintArg("index", 8)},
		reply: []fieldDecoder{uintField("index"), uintField("function"), uintField("stop_ticks")},
	},
	"SetGlobalConfig": {
		kind: protocol.KindWrite,
		wire: cmdGlobalConfig,
		args: []argEncoder{uintArg("sensor_id", 8), uintArg("motor_speed", 8), uintArg("step_ticks", 16)},
	},
	"GetGlobalConfig": {
		kind:  protocol.KindRequestRead,
		wire:  cmdGlobalConfig,
		reply: []fieldDecoder{uintField("sensor_id"), uintField("motor_speed"), uintField("step_ticks")},
	},
}

var changeStateErrors = map[uint64]string{
	1: "invalid state change",
	2: "method break",
	3: "unknown operation",
	4: "timeout",
	5: "another method is running",
	6: "general error",
}

var poseErrors = map[uint64]string{
	1: "wrong operating mode",
	2: "asynchronous method terminated",
	3: "invalid data",
	4: "no position available",
	5: "timeout",
	6: "method already active",
	89: "general error",
}

var layoutErrors = map[uint64]string{
	1: "wrong operating mode",
	2: "storing failed",
}

// Commands lists the operation names Execute accepts.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named operation with args and returns the decoded reply fields.
func (d *Device) Execute(ctx context.Context, name string, args ...interface{}) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.execute(ctx, name, args...)
}

func (d *Device) execute(ctx context.Context, name string, args ...interface{}) (Result, error) {
	cmd, ok := commands[name]
	if !ok {
		return nil, errors.Errorf("unknown command %q", name)
	}
	if len(args) != len(cmd.args) {
		return nil, errors.Errorf("%s takes %d arguments, got %d", name, len(cmd.args), len(args))
	}
	tokens := make([]string, 0, len(args))
	for i, enc := range cmd.args {
		tok, err := enc(args[i])
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		tokens = append(tokens, tok)
	}

	tr, err := d.transactor()
	if err != nil {
		return nil, err
	}
	tel, err := tr.Do(ctx, cmd.kind, cmd.wire, tokens, d.replyTimeout)
	if err != nil {
		return nil, err
	}

	result := Result{}
	if err := decodeFields(newTokens(tel), result, cmd.reply); err != nil {
		return nil, err
	}
	if cmd.check != nil {
		if err := cmd.check(result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// SendRaw sends the telegram text as given, e.g. "sRN DeviceIdent", and returns the reply.
func (d *Device) SendRaw(ctx context.Context, text string) (protocol.Telegram, error) {
	req := protocol.Classify([]byte(text))
	if req.Kind == protocol.KindUnknown || req.Kind.IsReply() || req.Command == "" {
		return protocol.Telegram{}, errors.Errorf("%q is not a request telegram", text)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	tr, err := d.transactor()
	if err != nil {
		return protocol.Telegram{}, err
	}
	return tr.Do(ctx, req.Kind, req.Command, req.Args(), d.replyTimeout)
}

// checkSuccess fails when the reply's success flag is zero. A non-negative code is reported
// as the device error code.
func checkSuccess(wire string, code int) func(Result) error {
	return func(r Result) error {
		if v, _ := r["success"].(uint64); v != 0 {
			return nil
		}
		return &protocol.DeviceError{Context: wire + " was not successful", Code: code}
	}
}

// checkErrorCode fails when the reply's error code is non-zero.
func checkErrorCode(wire string, descriptions map[uint64]string) func(Result) error {
	return func(r Result) error {
		v, _ := r["error_code"].(uint64)
		if v == 0 {
			return nil
		}
		desc, ok := descriptions[v]
		if !ok {
			desc = "unknown error"
		}
		return &protocol.DeviceError{Context: fmt.Sprintf("%s error code %d (%s)", wire, v, desc), Code: -1}
	}
}
