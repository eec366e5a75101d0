package changefeed

import "errors"

var (
	// ErrNotConnected is returned when publishing on a disconnected client.
	ErrNotConnected = errors.New("changefeed: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("changefeed: connection failed")

	// ErrPublishFailed is returned when a publish does not complete.
	ErrPublishFailed = errors.New("changefeed: publish failed")

	// ErrSubscribeFailed is returned when the subscription cannot be made.
	ErrSubscribeFailed = errors.New("changefeed: subscribe failed")

	// ErrInvalidQoS is returned for QoS levels other than 0, 1 or 2.
	ErrInvalidQoS = errors.New("changefeed: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidEvent is returned for events missing kind, id or action.
	ErrInvalidEvent = errors.New("changefeed: invalid change event")
)
