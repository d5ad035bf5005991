package frame

// FrameContext carries per-invocation source data and the derived
// correlation values a Gather call needs. One context is populated once
// per source frame via UpdateSourceData and then reused across every
// strategy in a QueryPlan for that frame.
type FrameContext struct {
	SourceFrameData *FrameData

	PerformanceCounterPeriodMs float64
	QPCStart                   uint64

	dropped bool

	cpuStart                     uint64
	nextDisplayedQpc             uint64
	previousDisplayedQpc         uint64
	previousDisplayedCpuStartQpc uint64
}

// UpdateSourceData recomputes every derived correlation value for the
// current source frame. Any neighbor may be nil; the specific strategies
// that read the corresponding derived value collapse to 0.0 or NaN per
// their own rules rather than requiring a non-nil neighbor here.
func (c *FrameContext) UpdateSourceData(current, nextDisplayed, lastPresented, lastDisplayed, previousLastDisplayed *FrameData) {
	c.SourceFrameData = current
	c.dropped = current.PresentEvent.FinalState != PresentResultPresented

	if lastPresented != nil {
		c.cpuStart = lastPresented.PresentEvent.PresentStartTime + lastPresented.PresentEvent.TimeInPresent
	} else {
		c.cpuStart = 0
	}

	if nextDisplayed != nil {
		c.nextDisplayedQpc = nextDisplayed.PresentEvent.EffectiveScreenTime()
	} else {
		c.nextDisplayedQpc = 0
	}

	if lastDisplayed != nil {
		c.previousDisplayedQpc = lastDisplayed.PresentEvent.EffectiveScreenTime()
	} else {
		c.previousDisplayedQpc = 0
	}

	if previousLastDisplayed != nil {
		c.previousDisplayedCpuStartQpc = previousLastDisplayed.PresentEvent.PresentStartTime + previousLastDisplayed.PresentEvent.TimeInPresent
	} else {
		c.previousDisplayedCpuStartQpc = 0
	}
}

// Dropped reports whether the current frame's FinalState was anything
// other than Presented.
func (c *FrameContext) Dropped() bool { return c.dropped }
