// Package driver adapts the uwb.Driver and uwb.DriverCallbackSink ports
// (internal/uwb) onto a system D-Bus NativeUwbManager endpoint, the
// platform's UWB HAL boundary. It owns exactly one long-lived bus
// connection, translating blocking method calls into D-Bus calls and
// D-Bus signals into DriverCallbackSink invocations.
//
// TLV parameter encoding is this package's responsibility, not the core's
// (internal/uwb explicitly excludes it); for brevity the encoder here
// produces a D-Bus variant map rather than a raw FiRa TLV byte stream.
package driver
