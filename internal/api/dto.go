package api

import (
	"fmt"
	"time"

	"github.com/uwbd/uwbd/internal/uwb"
)

// OpenSessionRequest is the request body for POST /sessions. Exactly one of
// Fira/CCC/Radar must be set; the session type names which.
type OpenSessionRequest struct {
	SessionID   uint32            `json:"session_id"`
	SessionType string            `json:"session_type"`
	ChipID      string            `json:"chip_id"`
	SystemUID   bool              `json:"system_uid,omitempty"`
	Foreground  bool              `json:"foreground,omitempty"`
	Attribution []AttributionDTO  `json:"attribution,omitempty"`

	Fira  *FiraParamsDTO  `json:"fira_params,omitempty"`
	CCC   *CCCParamsDTO   `json:"ccc_params,omitempty"`
	Radar *RadarParamsDTO `json:"radar_params,omitempty"`
}

// AttributionDTO is one link of a caller's attribution chain.
type AttributionDTO struct {
	UID     int    `json:"uid"`
	Package string `json:"package"`
}

// FiraParamsDTO is the wire representation of uwb.FiraParams.
type FiraParamsDTO struct {
	UCIVersion             string `json:"uci_version"`
	RelativeInitiationMs   int64  `json:"relative_initiation_ms,omitempty"`
	AbsoluteInitiationTime *uint64 `json:"absolute_initiation_time,omitempty"`
	TimeSyncSessionID      uint32 `json:"time_sync_session_id,omitempty"`
	RangingRoundUsage      string `json:"ranging_round_usage,omitempty"`
	DeviceRole             string `json:"device_role,omitempty"`
	RangingIntervalMs      uint32 `json:"ranging_interval_ms"`
	DataRepetitionCount    uint32 `json:"data_repetition_count,omitempty"`
}

// CCCParamsDTO is the wire representation of uwb.CCCParams.
type CCCParamsDTO struct {
	UCIVersion             string  `json:"uci_version"`
	RelativeInitiationMs   int64   `json:"relative_initiation_ms,omitempty"`
	AbsoluteInitiationTime *uint64 `json:"absolute_initiation_time,omitempty"`
	RanMultiplier          uint32  `json:"ran_multiplier"`
	RangingIntervalMs      uint32  `json:"ranging_interval_ms"`
}

// RadarParamsDTO is the wire representation of uwb.RadarParams.
type RadarParamsDTO struct {
	BurstPeriodMs  uint32 `json:"burst_period_ms"`
	SweepPeriodMs  uint32 `json:"sweep_period_ms"`
	FramesPerBurst uint32 `json:"frames_per_burst"`
}

// SessionResponse is the representation of a resident session returned by
// GET /sessions and GET /sessions/{handle}.
type SessionResponse struct {
	SessionID   uint32   `json:"session_id"`
	Handle      uint64   `json:"handle"`
	SessionType string   `json:"session_type"`
	ChipID      string   `json:"chip_id"`
	State       string   `json:"state"`
	Priority    string   `json:"priority"`
	Controlees  []string `json:"controlees,omitempty"`
}

func sessionToResponse(s *uwb.Session) SessionResponse {
	controlees := s.Controlees()
	out := make([]string, len(controlees))
	for i, addr := range controlees {
		out[i] = uint64Hex(addr)
	}
	return SessionResponse{
		SessionID:   s.ID(),
		Handle:      uint64(s.Handle()),
		SessionType: s.Type().String(),
		ChipID:      s.ChipID(),
		State:       s.State().String(),
		Priority:    s.Priority().String(),
		Controlees:  out,
	}
}

func parseUCIVersion(v string) uwb.UCIVersion {
	if v == "2" || v == "2+" || v == "uci2" {
		return uwb.UCIVersion2Plus
	}
	return uwb.UCIVersion1x
}

func parseRoundUsage(v string) uwb.RangingRoundUsage {
	if v == "owr_aoa" {
		return uwb.RangingRoundUsageOwrAoA
	}
	return uwb.RangingRoundUsageTwoWay
}

func parseDeviceRole(v string) uwb.DeviceRole {
	if v == "observer" {
		return uwb.RoleObserver
	}
	return uwb.RoleController
}

// toOpenParams converts the request body's protocol-specific block into the
// uwb.OpenParams sum type, per the session_type discriminator.
func (req OpenSessionRequest) toOpenParams() (uwb.OpenParams, error) {
	switch req.SessionType {
	case "FIRA_RANGING":
		if req.Fira == nil {
			return nil, fmt.Errorf("fira_params required for session_type FIRA_RANGING")
		}
		return &uwb.FiraParams{
			UCIVersion:             parseUCIVersion(req.Fira.UCIVersion),
			RelativeInitiationTime: time.Duration(req.Fira.RelativeInitiationMs) * time.Millisecond,
			AbsoluteInitiationTime: req.Fira.AbsoluteInitiationTime,
			TimeSyncSessionID:      req.Fira.TimeSyncSessionID,
			RangingRoundUsage:      parseRoundUsage(req.Fira.RangingRoundUsage),
			DeviceRole:             parseDeviceRole(req.Fira.DeviceRole),
			RangingIntervalMs:      req.Fira.RangingIntervalMs,
			DataRepetitionCount:    req.Fira.DataRepetitionCount,
		}, nil
	case "CCC":
		if req.CCC == nil {
			return nil, fmt.Errorf("ccc_params required for session_type CCC")
		}
		return &uwb.CCCParams{
			UCIVersion:             parseUCIVersion(req.CCC.UCIVersion),
			RelativeInitiationTime: time.Duration(req.CCC.RelativeInitiationMs) * time.Millisecond,
			AbsoluteInitiationTime: req.CCC.AbsoluteInitiationTime,
			RanMultiplier:          req.CCC.RanMultiplier,
			RangingIntervalMs:      req.CCC.RangingIntervalMs,
		}, nil
	case "RADAR":
		if req.Radar == nil {
			return nil, fmt.Errorf("radar_params required for session_type RADAR")
		}
		return &uwb.RadarParams{
			BurstPeriodMs:  req.Radar.BurstPeriodMs,
			SweepPeriodMs:  req.Radar.SweepPeriodMs,
			FramesPerBurst: req.Radar.FramesPerBurst,
		}, nil
	default:
		return nil, fmt.Errorf("unknown session_type %q", req.SessionType)
	}
}

func parseSessionType(v string) (uwb.SessionType, error) {
	switch v {
	case "FIRA_RANGING":
		return uwb.SessionTypeFiraRanging, nil
	case "CCC":
		return uwb.SessionTypeCCC, nil
	case "RADAR":
		return uwb.SessionTypeRadar, nil
	default:
		return 0, fmt.Errorf("unknown session_type %q", v)
	}
}

func toAttribution(in []AttributionDTO) []uwb.Attribution {
	out := make([]uwb.Attribution, len(in))
	for i, a := range in {
		out[i] = uwb.Attribution{UID: a.UID, Package: a.Package}
	}
	return out
}

// ReconfigureRequest is the request body for POST /sessions/{handle}/reconfigure.
type ReconfigureRequest struct {
	Fira *FiraParamsDTO `json:"fira_params,omitempty"`
	CCC  *CCCParamsDTO  `json:"ccc_params,omitempty"`
}

// StartRequest is the optional request body for POST /sessions/{handle}/start,
// carrying CCC start-time overrides; all other session types ignore it.
type StartRequest struct {
	CCCRanMultiplier *uint32 `json:"ccc_ran_multiplier,omitempty"`
}

// MulticastUpdateRequest is the request body for
// POST /sessions/{handle}/multicast.
type MulticastUpdateRequest struct {
	Action         string   `json:"action"`
	Addresses      []uint64 `json:"addresses"`
	SubSessionIDs  []uint32 `json:"sub_session_ids,omitempty"`
	SessionKeyHex  string   `json:"session_key_hex,omitempty"`
	SubSessionKeysHex []string `json:"sub_session_keys_hex,omitempty"`
}

// SendDataRequest is the request body for POST /sessions/{handle}/send.
type SendDataRequest struct {
	PeerMAC    uint64 `json:"peer_mac"`
	PayloadHex string `json:"payload_hex"`
}
