package views

// Observer receives aggregation progress. Implementations must return
// promptly: callbacks run on the aggregating goroutine.
type Observer interface {
	// IsReady reports whether there is anywhere to show a total. LoadTotal
	// does nothing when it returns false.
	IsReady() bool
	OnStart()
	// OnProgress reports percent complete and the running total so far.
	OnProgress(percent int, preview int)
	OnComplete(total int)
	OnError()
	// OnPartial reports a total that is missing failures batches.
	OnPartial(total int, failures int)
}

// NopObserver accepts every callback and is always ready. Callers that only
// need the returned Outcome use it.
type NopObserver struct{}

func (NopObserver) IsReady() bool { return true }
func (NopObserver) OnStart() {}
func (NopObserver) OnProgress(int, int) {}
func (NopObserver) OnComplete(int) {}
func (NopObserver) OnError() {}
func (NopObserver) OnPartial(int, int) {}
