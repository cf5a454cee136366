package uwb

import "time"

// OpenParams is the tagged-union of protocol-specific open/reconfigure
// parameters. Each SessionType has exactly one concrete implementation;
// protoadapt.go dispatches on the concrete type with a type switch rather
// than a class hierarchy, per the "sum types + exhaustive matching"
// preference for variant dispatch in this codebase.
type OpenParams interface {
	// SessionType reports which concrete variant this is.
	SessionType() SessionType
	// Clone returns a deep-enough copy suitable for caching on the Session;
	// the cache must not alias caller-owned slices.
	Clone() OpenParams
}

// UCIVersion distinguishes UCI 1.x from 2.0+ behaviour, which changes
// initiation-time and session-time-base handling (protoadapt.go).
type UCIVersion uint8

const (
	// UCIVersion1x is UCI 1.x.
	UCIVersion1x UCIVersion = iota
	// UCIVersion2Plus is UCI 2.0 or later.
	UCIVersion2Plus
)

// FiraParams is the FiRa ranging session parameter variant.
type FiraParams struct {
	UCIVersion UCIVersion

	// SessionPriority is overwritten at open/reconfigure time by the
	// Protocol Adapter with the session's stack-assigned priority.
	SessionPriority Priority

	// RelativeInitiationTime is the app-supplied relative initiation delay,
	// interpreted relative to the UWBS clock at open time. Zero means
	// unset.
	RelativeInitiationTime time.Duration

	// AbsoluteInitiationTime is either app-supplied or computed by the
	// Protocol Adapter from a queried UWBS timestamp. Non-nil once set.
	AbsoluteInitiationTime *uint64

	// TimeSyncSessionID references another session by id for session
	// time-base linkage (FiRa 2.0+ only). Zero means unset.
	TimeSyncSessionID uint32

	// RangingRoundUsage selects two-way vs one-way AoA ranging.
	RangingRoundUsage RangingRoundUsage

	// DeviceRole is this endpoint's role in the exchange.
	DeviceRole DeviceRole

	// BlockStride, when non-nil, has been set by a reconfigure and changes
	// the error-streak timer multiplier (errorstreak.go).
	BlockStride *uint32

	// RangingIntervalMs is the configured ranging round interval.
	RangingIntervalMs uint32

	// RangeDataNtfConfigDisabled is set by the foreground/background
	// policy (foreground.go) to silence range-data notifications while
	// backgrounded.
	RangeDataNtfConfigDisabled bool

	// DataRepetitionCount bounds how many DATA_TRANSFER_REPETITION_OK
	// notifications are expected before a send record is considered
	// terminal; zero means "remove only on a terminal OK" (§4.7, §9 open
	// question).
	DataRepetitionCount uint32
}

// SessionType implements OpenParams.
func (p *FiraParams) SessionType() SessionType { return SessionTypeFiraRanging }

// Clone implements OpenParams.
func (p *FiraParams) Clone() OpenParams {
	cp := *p
	if p.AbsoluteInitiationTime != nil {
		v := *p.AbsoluteInitiationTime
		cp.AbsoluteInitiationTime = &v
	}
	if p.BlockStride != nil {
		v := *p.BlockStride
		cp.BlockStride = &v
	}
	return &cp
}

// CCCParams is the CCC session parameter variant. CCC sessions are
// privileged by construction (policy.go assigns PriorityCCC unconditionally).
type CCCParams struct {
	UCIVersion UCIVersion

	RelativeInitiationTime time.Duration
	AbsoluteInitiationTime *uint64

	// RanMultiplier is cached from open-params and reused by start if the
	// caller omits start-params (protoadapt.go's CCC start-param merge).
	RanMultiplier uint32

	RangingIntervalMs uint32
}

// SessionType implements OpenParams.
func (p *CCCParams) SessionType() SessionType { return SessionTypeCCC }

// Clone implements OpenParams.
func (p *CCCParams) Clone() OpenParams {
	cp := *p
	if p.AbsoluteInitiationTime != nil {
		v := *p.AbsoluteInitiationTime
		cp.AbsoluteInitiationTime = &v
	}
	return &cp
}

// CCCStartParams carries the optional start-time parameters for CCC
// startRanging; an absent RanMultiplier means "reuse the cached value from
// open-params" (§4.6 CCC start-param merge).
type CCCStartParams struct {
	RanMultiplier *uint32
}

// RadarParams is the radar session parameter variant.
type RadarParams struct {
	BurstPeriodMs    uint32
	SweepPeriodMs    uint32
	FramesPerBurst   uint32
}

// SessionType implements OpenParams.
func (p *RadarParams) SessionType() SessionType { return SessionTypeRadar }

// Clone implements OpenParams.
func (p *RadarParams) Clone() OpenParams {
	cp := *p
	return &cp
}
