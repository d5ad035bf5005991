package frame

import "log/slog"

// finalAlign is the trailing alignment every compiled blob is padded to,
// so a query plan's total size is always safe to use as an array stride.
const finalAlign = 16

// planLayout walks elements in submission order, compiling each into a
// gather strategy and writing its computed offsets back into the element.
// It returns the compiled strategies, the padded total blob size, and the
// single device id referenced by the query (if any element names one).
//
// An element naming a metric absent from the catalog is skipped: no
// strategy is appended for it, it consumes no blob space, and its
// DataOffset/DataSize are left at zero. logger receives a diagnostic per
// skipped element rather than failing the whole plan for a client mixing
// catalog versions.
func planLayout(elements []QueryElement, logger *slog.Logger) ([]GatherStrategy, uint32, uint32, bool, error) {
	if len(elements) == 0 {
		return nil, 0, 0, false, ErrNoElements
	}
	if logger == nil {
		logger = slog.Default()
	}

	strategies := make([]GatherStrategy, 0, len(elements))
	var cursor uint32
	var deviceID uint32
	var haveDevice bool

	for i := range elements {
		el := &elements[i]

		if el.DeviceID != 0 {
			if haveDevice && el.DeviceID != deviceID {
				return nil, 0, 0, false, ErrMultipleDevices
			}
			deviceID = el.DeviceID
			haveDevice = true
		}

		strategy, ok := buildStrategy(el.Metric, cursor, el.ArrayIndex)
		if !ok {
			logger.Warn("unknown metric dropped from query plan", "metric", el.Metric)
			continue
		}

		el.DataOffset = strategy.OutputOffset()
		el.DataSize = DataSize(strategy)

		strategies = append(strategies, strategy)
		cursor = strategy.EndOffset()
	}

	blobSize := alignUp(cursor, finalAlign)
	return strategies, blobSize, deviceID, haveDevice, nil
}
