package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/uwbd/uwbd/internal/uwb"
)

const (
	signalSessionStatus  = ifaceName + ".SessionStatusNotification"
	signalRangeData      = ifaceName + ".RangeDataNotification"
	signalMulticastList  = ifaceName + ".MulticastListUpdateNotification"
	signalDataReceived   = ifaceName + ".DataReceived"
	signalDataSendStatus = ifaceName + ".DataSendStatus"
	signalRadarData      = ifaceName + ".RadarDataMessage"
)

// Subscribe registers the bus match rules for every notification this
// adapter translates and starts a goroutine that forwards them to sink
// until ctx is cancelled. It must be called once, after the Manager (the
// sink) has been constructed, so no signal arrives before there is
// somewhere to route it.
func (c *Client) Subscribe(ctx context.Context, sink uwb.DriverCallbackSink, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(objectPath),
		dbus.WithMatchInterface(ifaceName),
	); err != nil {
		return fmt.Errorf("driver: add match: %w", err)
	}

	ch := make(chan *dbus.Signal, 64)
	c.conn.Signal(ch)

	go func() {
		defer c.conn.RemoveSignal(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				c.dispatchSignal(sig, sink, logger)
			}
		}
	}()

	return nil
}

func (c *Client) dispatchSignal(sig *dbus.Signal, sink uwb.DriverCallbackSink, logger *slog.Logger) {
	switch sig.Name {
	case signalSessionStatus:
		handleSessionStatus(sig, sink, logger)
	case signalRangeData:
		handleRangeData(sig, sink, logger)
	case signalMulticastList:
		handleMulticastListUpdate(sig, sink, logger)
	case signalDataReceived:
		handleDataReceived(sig, sink, logger)
	case signalDataSendStatus:
		handleDataSendStatus(sig, sink, logger)
	case signalRadarData:
		handleRadarData(sig, sink, logger)
	default:
		logger.Warn("driver: unrecognised signal", "name", sig.Name)
	}
}

func handleSessionStatus(sig *dbus.Signal, sink uwb.DriverCallbackSink, logger *slog.Logger) {
	var sessionID uint32
	var state uint8
	var reason string
	if err := dbus.Store(sig.Body, &sessionID, &state, &reason); err != nil {
		logger.Warn("driver: malformed SessionStatusNotification", "error", err)
		return
	}
	sink.OnSessionStatusNotificationReceived(sessionID, uwb.State(state), reason)
}

func handleRangeData(sig *dbus.Signal, sink uwb.DriverCallbackSink, logger *slog.Logger) {
	var sessionID uint32
	var measurementType, role, roundUsage, status uint8
	var peerMAC uint64
	if err := dbus.Store(sig.Body, &sessionID, &measurementType, &role, &roundUsage, &peerMAC, &status); err != nil {
		logger.Warn("driver: malformed RangeDataNotification", "error", err)
		return
	}
	sink.OnRangeDataNotificationReceived(uwb.RangeData{
		SessionID:       sessionID,
		MeasurementType: uwb.MeasurementType(measurementType),
		Role:            uwb.DeviceRole(role),
		RoundUsage:      uwb.RangingRoundUsage(roundUsage),
		PeerMAC:         peerMAC,
		Status:          uwb.Status(status),
	})
}

func handleMulticastListUpdate(sig *dbus.Signal, sink uwb.DriverCallbackSink, logger *slog.Logger) {
	var sessionID uint32
	var addrs []uint64
	var actions, statuses []uint8
	if err := dbus.Store(sig.Body, &sessionID, &addrs, &actions, &statuses); err != nil {
		logger.Warn("driver: malformed MulticastListUpdateNotification", "error", err)
		return
	}
	if len(addrs) != len(actions) || len(addrs) != len(statuses) {
		logger.Warn("driver: MulticastListUpdateNotification field length mismatch", "session_id", sessionID)
		return
	}
	results := make([]uwb.MulticastResult, len(addrs))
	for i := range addrs {
		results[i] = uwb.MulticastResult{
			Address: addrs[i],
			Action:  uwb.MulticastAction(actions[i]),
			Status:  uwb.Status(statuses[i]),
		}
	}
	sink.OnMulticastListUpdateNotificationReceived(sessionID, results)
}

func handleDataReceived(sig *dbus.Signal, sink uwb.DriverCallbackSink, logger *slog.Logger) {
	var sessionID uint32
	var status uint8
	var seqNum uint16
	var peerMAC uint64
	var payload []byte
	if err := dbus.Store(sig.Body, &sessionID, &status, &seqNum, &peerMAC, &payload); err != nil {
		logger.Warn("driver: malformed DataReceived", "error", err)
		return
	}
	sink.OnDataReceived(sessionID, uwb.Status(status), seqNum, peerMAC, payload)
}

func handleDataSendStatus(sig *dbus.Signal, sink uwb.DriverCallbackSink, logger *slog.Logger) {
	var sessionID uint32
	var status uint8
	var seqNum uint16
	var txCount uint32
	if err := dbus.Store(sig.Body, &sessionID, &status, &seqNum, &txCount); err != nil {
		logger.Warn("driver: malformed DataSendStatus", "error", err)
		return
	}
	sink.OnDataSendStatus(sessionID, uwb.DataTransferStatus(status), seqNum, txCount)
}

func handleRadarData(sig *dbus.Signal, sink uwb.DriverCallbackSink, logger *slog.Logger) {
	var sessionID uint32
	var payload []byte
	if err := dbus.Store(sig.Body, &sessionID, &payload); err != nil {
		logger.Warn("driver: malformed RadarDataMessage", "error", err)
		return
	}
	sink.OnRadarDataMessageReceived(uwb.RadarData{SessionID: sessionID, Payload: payload})
}
