package frame

import "errors"

// ErrNoElements is returned by New when a client submits an empty query.
var ErrNoElements = errors.New("frame: query has no elements")

// ErrMultipleDevices is returned by New when a query's elements reference
// more than one distinct non-zero DeviceID; elements on the universal
// device (DeviceID 0) may be mixed with one other device. A single query
// plan gathers from exactly one device's telemetry snapshot per
// invocation; a client that
// wants breakdowns across several devices submits one query per device.
var ErrMultipleDevices = errors.New("frame: query references more than one device")

// ErrTooManyElements is returned by callers enforcing a per-connection
// cap on query element count once a submitted query exceeds it.
var ErrTooManyElements = errors.New("frame: query has too many elements")
