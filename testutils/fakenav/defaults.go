package fakenav

import (
	"strings"

	"go.viam.com/sicknav/protocol"
	"go.viam.com/sicknav/sector"
)

// Pose reported by the fake: millimeters and millidegrees.
const (
	PoseX       = 1000
	PoseY       = -2000
	PosePhi     = 180000
	PoseUsedRef = 3
)

// ScanRanges are the DIST1 values of the fake's scan, in millimeters, one every 0.25 degrees
// starting at 0. ScanRemission are the matching RSSI1 values.
var (
	ScanRanges    = []uint64{1000, 0, 2000, 3000}
	ScanRemission = []uint64{10, 0, 20, 30}
)

func join(tokens ...string) string {
	return strings.Join(tokens, " ")
}

func arg(req protocol.Telegram, i int) uint64 {
	args := req.Args()
	if i >= len(args) {
		return 0
	}
	v, err := protocol.ParseUint(args[i])
	if err != nil {
		return 0
	}
	return v
}

func (s *Server) installDefaults() {
	s.handlers["sRN DeviceIdent"] = Reply(join("sRA DeviceIdent", protocol.FormatString(Name), protocol.FormatString(Version)))
	s.handlers["sRN SerialNumber"] = Reply(join("sRA SerialNumber", protocol.FormatString(SerialNumber)))
	s.handlers["sRN FirmwareVersion"] = Reply(join("sRA FirmwareVersion", protocol.FormatString(FirmwareVersion)))
	s.handlers["sRN DeviceInfo"] = Reply(join("sRA DeviceInfo", protocol.FormatString(DeviceInfo)))

	s.handlers["sMN SetAccessMode"] = func(req protocol.Telegram) []string {
		args := req.Args()
		if len(args) == 2 && args[1] == Password {
			return []string{"sAN SetAccessMode 1"}
		}
		return []string{"sAN SetAccessMode 0"}
	}

	s.handlers["sMN mNEVAChangeState"] = func(req protocol.Telegram) []string {
		mode := arg(req, 0)
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		if mode > 4 {
			return []string{join("sAN mNEVAChangeState 1", protocol.FormatUint(s.mode))}
		}
		s.mode = mode
		return []string{"sMA mNEVAChangeState", join("sAN mNEVAChangeState 0", protocol.FormatUint(mode))}
	}

	s.handlers["sRN NEVACurrLayer"] = func(req protocol.Telegram) []string {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		return []string{join("sRA NEVACurrLayer", protocol.FormatUint(s.layer))}
	}
	s.handlers["sWN NEVACurrLayer"] = func(req protocol.Telegram) []string {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		s.layer = arg(req, 0)
		return []string{"sWA NEVACurrLayer"}
	}

	for _, cmd := range []string{
		"NAVScanDataFormat", "NPOSPoseDataFormat", "NLMDLandmarkDataFormat",
		"NLMDReflSize", "NLMDReflType", "NPOSSlidingMean",
	} {
		s.handlers["sWN "+cmd] = Reply("sWA " + cmd)
	}
	for _, cmd := range []string{"mEEwriteall", "mNAVBreak", "mNAVReset"} {
		s.handlers["sMN "+cmd] = Reply("sAN " + cmd + " 1")
	}
	s.handlers["sMN mNAVGetTimestamp"] = Reply(join("sAN mNAVGetTimestamp 1", protocol.FormatUint(123456)))
	s.handlers["sMN mNLAYStoreLayout"] = Reply("sAN mNLAYStoreLayout 0")
	s.handlers["sMN mNLAYEraseLayout"] = Reply("sAN mNLAYEraseLayout 0")

	s.handlers["sWN SectorFunction"] = func(req protocol.Telegram) []string {
		i := arg(req, 0)
		if i >= sector.MaxNumSectors {
			return []string{"sFA 6"}
		}
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		s.sectors[i] = [2]uint64{arg(req, 1), arg(req, 2)}
		return []string{"sWA SectorFunction"}
	}
	s.handlers["sRN SectorFunction"] = func(req protocol.Telegram) []string {
		i := arg(req, 0)
		if i >= sector.MaxNumSectors {
			return []string{"sFA 6"}
		}
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		return []string{join("sRA SectorFunction", protocol.FormatUint(i),
			protocol.FormatUint(s.sectors[i][0]), protocol.FormatUint(s.sectors[i][1]))}
	}

	s.handlers["sWN GlobalConfig"] = func(req protocol.Telegram) []string {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		s.global = [3]uint64{arg(req, 0), arg(req, 1), arg(req, 2)}
		return []string{"sWA GlobalConfig"}
	}
	s.handlers["sRN GlobalConfig"] = func(req protocol.Telegram) []string {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		return []string{join("sRA GlobalConfig", protocol.FormatUint(s.global[0]),
			protocol.FormatUint(s.global[1]), protocol.FormatUint(s.global[2]))}
	}

	s.handlers["sMN mNPOSGetPose"] = Reply(join("sAN mNPOSGetPose 1 0 1", posePart(true)))
	s.handlers["sMN mNPOSGetData"] = Reply(join("sAN mNPOSGetData 1 0 1 2", posePart(false),
		landmarkPart(), "1", channelPart("DIST1", ScanRanges), "1", channelPart("RSSI1", ScanRemission)))
}

// posePart is a present pose, optionally with its optional data.
func posePart(withOptional bool) string {
	pose := join("1", protocol.FormatInt(PoseX), protocol.FormatInt(PoseY), protocol.FormatUint(PosePhi))
	if !withOptional {
		return join(pose, "0")
	}
	// output mode, timestamp, mean deviation, nav mode, info state, used reflectors
	return join(pose, "1 0", protocol.FormatUint(1000), protocol.FormatInt(5), "0 0", protocol.FormatUint(PoseUsedRef))
}

// landmarkPart is one reflector in cartesian coordinates.
func landmarkPart() string {
	return join("1 0 1 1", protocol.FormatInt(500), protocol.FormatInt(600), "0 0")
}

// channelPart is a channel with unit scale starting at 0 with a 0.25 degree step.
func channelPart(name string, data []uint64) string {
	tokens := []string{
		name, protocol.FormatFloat32(1), protocol.FormatFloat32(0),
		protocol.FormatInt(0), protocol.FormatUint(250), protocol.FormatUint(1000),
		protocol.FormatUint(uint64(len(data))),
	}
	for _, v := range data {
		tokens = append(tokens, protocol.FormatUint(v))
	}
	return join(tokens...)
}
