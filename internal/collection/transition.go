package collection

import "github.com/bassista/go_catalog/internal/model"

type event int

const (
	eventStoreLoaded event = iota
	eventStoreLoadFailed
	eventFetchStarted
	eventFetchMoreStarted
	eventFetchSucceeded
	eventFetchFailed
)

// transition returns the state after ev, and false when ev is not allowed in s.
// A fetch may only start when none is in flight; store loads never interrupt one.
func transition(s model.DataState, ev event) (model.DataState, bool) {
	switch ev {
	case eventStoreLoaded:
		if s.InFlight() {
			return s, true
		}
		return model.DataStateHasData, true
	case eventStoreLoadFailed:
		if s.InFlight() {
			return s, true
		}
		return model.DataStateFailed, true
	case eventFetchStarted:
		if s.InFlight() {
			return s, false
		}
		return model.DataStateLoading, true
	case eventFetchMoreStarted:
		if s.InFlight() || s != model.DataStateHasData {
			return s, false
		}
		return model.DataStateLoadingAdditional, true
	case eventFetchSucceeded:
		if !s.InFlight() {
			return s, false
		}
		return model.DataStateHasData, true
	case eventFetchFailed:
		if !s.InFlight() {
			return s, false
		}
		return model.DataStateFailed, true
	}
	return s, false
}
