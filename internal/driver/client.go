package driver

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/uwbd/uwbd/internal/uwb"
)

const (
	busName    = "org.freedesktop.UWB1"
	objectPath = dbus.ObjectPath("/org/freedesktop/UWB1/Manager")
	ifaceName  = "org.freedesktop.UWB1.Manager"
)

// Client is the uwb.Driver implementation backed by a system bus
// connection to the platform's NativeUwbManager service.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial connects to the system bus and binds to the NativeUwbManager
// object. The returned Client does not yet listen for signals; call
// Subscribe separately once a DriverCallbackSink is available to receive
// them (typically after the uwb.Manager has been constructed).
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("driver: connect system bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(busName, objectPath)}, nil
}

// Close releases the underlying bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, ret any, args ...any) error {
	call := c.obj.CallWithContext(ctx, ifaceName+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("driver: %s: %w", method, call.Err)
	}
	if ret == nil {
		return nil
	}
	return call.Store(ret)
}

// InitSession implements uwb.Driver.
func (c *Client) InitSession(ctx context.Context, sessionID uint32, sessionType uwb.SessionType, chipID string, params uwb.OpenParams) (uwb.Status, error) {
	encoded, err := encodeParams(params)
	if err != nil {
		return uwb.StatusFailed, err
	}

	var raw uint8
	err = c.call(ctx, "InitSession", &raw, sessionID, uint8(sessionType), chipID, encoded)
	return statusFromCall(raw, err)
}

// DeInitSession implements uwb.Driver.
func (c *Client) DeInitSession(ctx context.Context, sessionID uint32, chipID string) (uwb.Status, error) {
	var raw uint8
	err := c.call(ctx, "DeInitSession", &raw, sessionID, chipID)
	return statusFromCall(raw, err)
}

// StartRanging implements uwb.Driver.
func (c *Client) StartRanging(ctx context.Context, sessionID uint32, chipID string) (uwb.Status, error) {
	var raw uint8
	err := c.call(ctx, "StartRanging", &raw, sessionID, chipID)
	return statusFromCall(raw, err)
}

// StopRanging implements uwb.Driver.
func (c *Client) StopRanging(ctx context.Context, sessionID uint32, chipID string) (uwb.Status, error) {
	var raw uint8
	err := c.call(ctx, "StopRanging", &raw, sessionID, chipID)
	return statusFromCall(raw, err)
}

// Reconfigure implements uwb.Driver.
func (c *Client) Reconfigure(ctx context.Context, sessionID uint32, chipID string, params uwb.OpenParams) (uwb.Status, error) {
	encoded, err := encodeParams(params)
	if err != nil {
		return uwb.StatusFailed, err
	}
	var raw uint8
	err = c.call(ctx, "Reconfigure", &raw, sessionID, chipID, encoded)
	return statusFromCall(raw, err)
}

// SendData implements uwb.Driver.
func (c *Client) SendData(ctx context.Context, sessionID uint32, chipID string, peerMAC uint64, uciSeq uint16, payload []byte) (uwb.Status, error) {
	var raw uint8
	err := c.call(ctx, "SendData", &raw, sessionID, chipID, peerMAC, uciSeq, payload)
	return statusFromCall(raw, err)
}

// MulticastListUpdate implements uwb.Driver.
func (c *Client) MulticastListUpdate(ctx context.Context, sessionID uint32, chipID string, update uwb.MulticastUpdate) (uwb.Status, error) {
	var raw uint8
	err := c.call(ctx, "MulticastListUpdate", &raw,
		sessionID, chipID, uint8(update.Action), update.Addresses, update.SubSessionIDs, update.SessionKey, update.SubSessionKeys)
	return statusFromCall(raw, err)
}

// QueryMaxDataSizeBytes implements uwb.Driver.
func (c *Client) QueryMaxDataSizeBytes(ctx context.Context, sessionID uint32, chipID string) (int, error) {
	var size int32
	if err := c.call(ctx, "QueryMaxDataSizeBytes", &size, sessionID, chipID); err != nil {
		return 0, err
	}
	return int(size), nil
}

// QueryUwbsTimestampMicros implements uwb.Driver.
func (c *Client) QueryUwbsTimestampMicros(ctx context.Context) (uint64, error) {
	var ts uint64
	err := c.call(ctx, "QueryUwbsTimestampMicros", &ts)
	return ts, err
}

// GetSessionToken implements uwb.Driver.
func (c *Client) GetSessionToken(ctx context.Context, sessionID uint32, chipID string) (int, error) {
	var token int32
	if err := c.call(ctx, "GetSessionToken", &token, sessionID, chipID); err != nil {
		return 0, err
	}
	return int(token), nil
}

// UpdateDtTagRangingRounds implements uwb.Driver.
func (c *Client) UpdateDtTagRangingRounds(ctx context.Context, sessionID uint32, chipID string, roundIndices []uint8) (uwb.DtTagRangingRoundsStatus, error) {
	var raw struct {
		Status       uint8
		RoundIndices []uint8
	}
	err := c.call(ctx, "UpdateDtTagRangingRounds", &raw, sessionID, chipID, roundIndices)
	if err != nil {
		return uwb.DtTagRangingRoundsStatus{Status: uwb.StatusFailed}, err
	}
	return uwb.DtTagRangingRoundsStatus{Status: uwb.Status(raw.Status), RoundIndices: raw.RoundIndices}, nil
}

// SetHybridSessionConfiguration implements uwb.Driver.
func (c *Client) SetHybridSessionConfiguration(ctx context.Context, sessionID uint32, chipID string, numPhases uint8, updateTime []byte, phaseList []byte) (uwb.Status, error) {
	var raw uint8
	err := c.call(ctx, "SetHybridSessionConfiguration", &raw, sessionID, chipID, numPhases, updateTime, phaseList)
	return statusFromCall(raw, err)
}

// QueryMaxSessionNumber implements uwb.Driver.
func (c *Client) QueryMaxSessionNumber(ctx context.Context) (int, error) {
	var n int32
	if err := c.call(ctx, "QueryMaxSessionNumber", &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// QueryCachedDeviceInfo implements uwb.Driver.
func (c *Client) QueryCachedDeviceInfo(ctx context.Context, chipID string) (uwb.DeviceInfo, error) {
	var raw struct {
		UCIVersion string
		MACVersion string
		PHYVersion string
	}
	if err := c.call(ctx, "QueryCachedDeviceInfo", &raw, chipID); err != nil {
		return uwb.DeviceInfo{}, err
	}
	return uwb.DeviceInfo{UCIVersion: raw.UCIVersion, MACVersion: raw.MACVersion, PHYVersion: raw.PHYVersion}, nil
}

func statusFromCall(raw uint8, err error) (uwb.Status, error) {
	if err != nil {
		return uwb.StatusFailed, err
	}
	return uwb.Status(raw), nil
}

var _ uwb.Driver = (*Client)(nil)
