package store

import (
	"github.com/tenemo/sealed-vote/internal/flux"
)

// LocationChangeType is dispatched for every page navigation.
const LocationChangeType = "@@router/LOCATION_CHANGE"

// RouterState is the last page the view layer served.
type RouterState struct {
	Location string `json:"location"`
	Method   string `json:"method"`
}

// LocationChangedAction records a navigation.
type LocationChangedAction struct {
	Location string `json:"location"`
	Method   string `json:"method"`
}

func (LocationChangedAction) Type() string { return LocationChangeType }

// LocationChanged creates the navigation action
func LocationChanged(method, location string) LocationChangedAction {
	return LocationChangedAction{Location: location, Method: method}
}

// RouterReducer keeps RouterState in sync with navigations.
func RouterReducer(state *RouterState, action flux.Action) *RouterState {
	if state == nil {
		state = &RouterState{}
	}

	a, ok := action.(LocationChangedAction)
	if !ok {
		return state
	}
	if state.Location == a.Location && state.Method == a.Method {
		return state
	}
	return &RouterState{Location: a.Location, Method: a.Method}
}
