package uwb

import "context"

// Driver is the port the core uses to issue blocking commands to the native
// UWB subsystem (NativeUwbManager). Concrete adapters (internal/driver)
// implement this against a real chip/HAL; tests implement it against a
// fake. All calls are synchronous from the caller's point of view — the
// Command Dispatcher is the only caller and it calls them one at a time
// (spec §4.2, §5).
//
// This interface intentionally excludes TLV parameter encoding: params are
// passed as the already-rewritten OpenParams variant, and the adapter is
// responsible for any wire encoding it needs to perform — out of scope here
// per the core's own exclusions.
type Driver interface {
	// InitSession opens a session of the given type on chipID.
	InitSession(ctx context.Context, sessionID uint32, sessionType SessionType, chipID string, params OpenParams) (Status, error)

	// DeInitSession closes a session.
	DeInitSession(ctx context.Context, sessionID uint32, chipID string) (Status, error)

	// StartRanging starts ranging for an IDLE session.
	StartRanging(ctx context.Context, sessionID uint32, chipID string) (Status, error)

	// StopRanging stops ranging for an ACTIVE session.
	StopRanging(ctx context.Context, sessionID uint32, chipID string) (Status, error)

	// Reconfigure pushes updated parameters to an open session.
	Reconfigure(ctx context.Context, sessionID uint32, chipID string, params OpenParams) (Status, error)

	// SendData transmits an application payload to peerMAC under the given
	// UCI sequence number.
	SendData(ctx context.Context, sessionID uint32, chipID string, peerMAC uint64, uciSeq uint16, payload []byte) (Status, error)

	// MulticastListUpdate adds or removes controlees.
	MulticastListUpdate(ctx context.Context, sessionID uint32, chipID string, update MulticastUpdate) (Status, error)

	// QueryMaxDataSizeBytes reports the maximum application payload size.
	QueryMaxDataSizeBytes(ctx context.Context, sessionID uint32, chipID string) (int, error)

	// QueryUwbsTimestampMicros reports the UWBS clock, used by the Protocol
	// Adapter to compute absolute initiation times.
	QueryUwbsTimestampMicros(ctx context.Context) (uint64, error)

	// GetSessionToken returns the driver-side opaque token for a session,
	// used for session-time-base linkage (§4.6).
	GetSessionToken(ctx context.Context, sessionID uint32, chipID string) (int, error)

	// UpdateDtTagRangingRounds updates the set of active ranging-round
	// indices for a DT-Tag session and reports the per-index result.
	UpdateDtTagRangingRounds(ctx context.Context, sessionID uint32, chipID string, roundIndices []uint8) (DtTagRangingRoundsStatus, error)

	// SetHybridSessionConfiguration pushes a hybrid session's phase list to
	// the driver.
	SetHybridSessionConfiguration(ctx context.Context, sessionID uint32, chipID string, numPhases uint8, updateTime []byte, phaseList []byte) (Status, error)

	// QueryMaxSessionNumber reports the maximum number of sessions the chip
	// can hold concurrently, independent of any per-type quota the core
	// itself enforces.
	QueryMaxSessionNumber(ctx context.Context) (int, error)

	// QueryCachedDeviceInfo returns the driver's cached device capability
	// response for chipID (UCI GET_DEVICE_INFO).
	QueryCachedDeviceInfo(ctx context.Context, chipID string) (DeviceInfo, error)
}

// DtTagRangingRoundsStatus is the per-round-index result record returned by
// UpdateDtTagRangingRounds.
type DtTagRangingRoundsStatus struct {
	Status       Status
	RoundIndices []uint8
}

// DeviceInfo is the cached device capability response for a chip.
type DeviceInfo struct {
	UCIVersion string
	MACVersion string
	PHYVersion string
}

// Status is the synchronous status byte returned by driver calls.
type Status uint8

const (
	// StatusOK indicates success.
	StatusOK Status = iota
	// StatusFailed indicates a generic synchronous failure.
	StatusFailed
	// StatusRejected indicates the driver rejected the call outright
	// (e.g. malformed params).
	StatusRejected
	// StatusErrorSessionNotExist indicates the driver has no record of the
	// session id.
	StatusErrorSessionNotExist
)

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFailed:
		return "FAILED"
	case StatusRejected:
		return "REJECTED"
	case StatusErrorSessionNotExist:
		return "ERROR_SESSION_NOT_EXIST"
	default:
		return "UNKNOWN"
	}
}

// MulticastAction selects add or remove for a controlee list update.
type MulticastAction uint8

const (
	// MulticastActionAdd adds controlees.
	MulticastActionAdd MulticastAction = iota
	// MulticastActionRemove removes controlees.
	MulticastActionRemove
)

// MulticastUpdate describes one controlee-list update command. V1 and v2
// differ only in whether SubSessionKeys is populated; both fields must be
// present together or both absent (§4.8 validation).
type MulticastUpdate struct {
	Action          MulticastAction
	Addresses       []uint64
	SubSessionIDs   []uint32
	SessionKey      []byte
	SubSessionKeys  [][]byte
}
