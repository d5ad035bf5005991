package frame

// QueryElement is a client's request for one output column. DataSize and
// DataOffset are filled in by the layout planner during New; a client
// submits them zeroed.
type QueryElement struct {
	Metric     MetricID
	DeviceID   uint32
	ArrayIndex uint16

	DataOffset uint32
	DataSize   uint32
}
