package driver

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/uwbd/uwbd/internal/uwb"
)

// encodeParams renders an OpenParams variant as a D-Bus variant map. Real
// FiRa/CCC TLV encoding is a HAL-specific concern out of scope for the
// core (internal/uwb); this adapter's job is only to get the already
// protocol-adapter-rewritten fields onto the wire in a form the native
// service understands.
func encodeParams(params uwb.OpenParams) (map[string]dbus.Variant, error) {
	switch p := params.(type) {
	case *uwb.FiraParams:
		return encodeFiraParams(p), nil
	case *uwb.CCCParams:
		return encodeCCCParams(p), nil
	case *uwb.RadarParams:
		return encodeRadarParams(p), nil
	default:
		return nil, fmt.Errorf("driver: unknown open params type %T", params)
	}
}

func encodeFiraParams(p *uwb.FiraParams) map[string]dbus.Variant {
	m := map[string]dbus.Variant{
		"UciVersion":                 dbus.MakeVariant(uint8(p.UCIVersion)),
		"SessionPriority":            dbus.MakeVariant(uint8(p.SessionPriority)),
		"RelativeInitiationTimeUs":   dbus.MakeVariant(uint64(p.RelativeInitiationTime.Microseconds())),
		"TimeSyncSessionId":          dbus.MakeVariant(p.TimeSyncSessionID),
		"RangingRoundUsage":          dbus.MakeVariant(uint8(p.RangingRoundUsage)),
		"DeviceRole":                 dbus.MakeVariant(uint8(p.DeviceRole)),
		"RangingIntervalMs":          dbus.MakeVariant(p.RangingIntervalMs),
		"RangeDataNtfConfigDisabled": dbus.MakeVariant(p.RangeDataNtfConfigDisabled),
		"DataRepetitionCount":        dbus.MakeVariant(p.DataRepetitionCount),
	}
	if p.AbsoluteInitiationTime != nil {
		m["AbsoluteInitiationTimeUs"] = dbus.MakeVariant(*p.AbsoluteInitiationTime)
	}
	if p.BlockStride != nil {
		m["BlockStride"] = dbus.MakeVariant(*p.BlockStride)
	}
	return m
}

func encodeCCCParams(p *uwb.CCCParams) map[string]dbus.Variant {
	m := map[string]dbus.Variant{
		"UciVersion":               dbus.MakeVariant(uint8(p.UCIVersion)),
		"RelativeInitiationTimeUs": dbus.MakeVariant(uint64(p.RelativeInitiationTime.Microseconds())),
		"RanMultiplier":            dbus.MakeVariant(p.RanMultiplier),
		"RangingIntervalMs":        dbus.MakeVariant(p.RangingIntervalMs),
	}
	if p.AbsoluteInitiationTime != nil {
		m["AbsoluteInitiationTimeUs"] = dbus.MakeVariant(*p.AbsoluteInitiationTime)
	}
	return m
}

func encodeRadarParams(p *uwb.RadarParams) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"BurstPeriodMs":  dbus.MakeVariant(p.BurstPeriodMs),
		"SweepPeriodMs":  dbus.MakeVariant(p.SweepPeriodMs),
		"FramesPerBurst": dbus.MakeVariant(p.FramesPerBurst),
	}
}
