package stagerun

// Observer receives progress events while a stage pass runs. Implementations
// render however they like; the runner makes no assumption beyond the calls
// being cheap and non-blocking.
type Observer interface {
	StageStarted(stage string, itemCount int)
	ItemStarted(stage, name string)
	ItemSucceeded(stage, name string)
	ItemFailed(stage, name string, err error)
	StageFinished(stage string, succeeded, failed int)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) StageStarted(string, int) {}
func (NopObserver) ItemStarted(string, string) {}
func (NopObserver) ItemSucceeded(string, string) {}
func (NopObserver) ItemFailed(string, string, error) {}
func (NopObserver) StageFinished(string, int, int) {}
