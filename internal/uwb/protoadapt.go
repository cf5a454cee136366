package uwb

import (
	"context"
	"time"
)

// rewriteOnOpen applies the Protocol Adapter's open-time parameter rewrites
// (spec §4.6): priority injection, absolute initiation time computation,
// and session time-base substitution. It is called from inside a
// dispatcher-posted command, so driver queries it issues (UWBS timestamp,
// session token) execute serially with everything else.
//
// Dispatch is a type switch over the OpenParams sum type rather than a
// class hierarchy, per the variant-dispatch preference in this codebase.
func rewriteOnOpen(ctx context.Context, driver Driver, priority Priority, cccEnabled bool, params OpenParams) (OpenParams, error) {
	switch p := params.(type) {
	case *FiraParams:
		return rewriteFiraOnOpen(ctx, driver, priority, p)
	case *CCCParams:
		return rewriteCCCOnOpen(ctx, driver, cccEnabled, p)
	case *RadarParams:
		return p, nil
	default:
		return params, nil
	}
}

func rewriteFiraOnOpen(ctx context.Context, driver Driver, priority Priority, p *FiraParams) (OpenParams, error) {
	out := p.Clone().(*FiraParams)
	out.SessionPriority = priority

	if out.UCIVersion == UCIVersion2Plus {
		if out.AbsoluteInitiationTime == nil && out.RelativeInitiationTime > 0 {
			ts, err := driver.QueryUwbsTimestampMicros(ctx)
			if err != nil {
				return nil, err
			}
			abs := ts + uint64(out.RelativeInitiationTime/time.Microsecond)
			out.AbsoluteInitiationTime = &abs
		}

		if out.TimeSyncSessionID != 0 {
			token, err := driver.GetSessionToken(ctx, out.TimeSyncSessionID, "")
			if err != nil {
				return nil, err
			}
			// The driver-side token replaces the raw session id reference;
			// stash it back into TimeSyncSessionID since the wire encoding
			// of the substituted token is out of scope here (TLV codecs are
			// excluded, per the core's own exclusions).
			out.TimeSyncSessionID = uint32(token)
		}
	}

	return out, nil
}

func rewriteCCCOnOpen(ctx context.Context, driver Driver, cccEnabled bool, p *CCCParams) (OpenParams, error) {
	out := p.Clone().(*CCCParams)

	if cccEnabled && out.UCIVersion == UCIVersion2Plus &&
		out.AbsoluteInitiationTime == nil && out.RelativeInitiationTime > 0 {
		ts, err := driver.QueryUwbsTimestampMicros(ctx)
		if err != nil {
			return nil, err
		}
		abs := ts + uint64(out.RelativeInitiationTime/time.Microsecond)
		out.AbsoluteInitiationTime = &abs
	}

	return out, nil
}

// rewriteOnReconfigure applies the FiRa priority-injection rule at
// reconfigure time (§4.6 "For FiRa params at open and at reconfigure,
// rewrite the params' session-priority").
func rewriteOnReconfigure(priority Priority, params OpenParams) OpenParams {
	if p, ok := params.(*FiraParams); ok {
		out := p.Clone().(*FiraParams)
		out.SessionPriority = priority
		return out
	}
	return params
}

// rewriteCCCOnStart applies the CCC start-param merge (§4.6): if
// startRanging supplies no start-params, reuse the RAN-multiplier from the
// cached open-params; else the supplied value overrides the cache.
func rewriteCCCOnStart(cached *CCCParams, start *CCCStartParams) *CCCParams {
	out := cached.Clone().(*CCCParams)
	if start != nil && start.RanMultiplier != nil {
		out.RanMultiplier = *start.RanMultiplier
	}
	return out
}

// rewriteCCCOnOpenOrStartAbsoluteTime applies the CCC absolute-initiation-time
// rule at start time, mirroring the open-time rule but gated the same way
// (§4.6: "apply the same rule at both open and start").
func rewriteCCCOnOpenOrStartAbsoluteTime(ctx context.Context, driver Driver, cccEnabled bool, p *CCCParams) (*CCCParams, error) {
	out := p.Clone().(*CCCParams)
	if !cccEnabled || out.UCIVersion != UCIVersion2Plus {
		return out, nil
	}
	if out.AbsoluteInitiationTime != nil || out.RelativeInitiationTime <= 0 {
		return out, nil
	}
	ts, err := driver.QueryUwbsTimestampMicros(ctx)
	if err != nil {
		return nil, err
	}
	abs := ts + uint64(out.RelativeInitiationTime/time.Microsecond)
	out.AbsoluteInitiationTime = &abs
	return out, nil
}
