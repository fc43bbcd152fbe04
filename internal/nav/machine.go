// Package nav holds the view-state machine. Screens are an enumerated set,
// transitions are validated against an explicit table, and detail views are
// guarded by selected-entity requirements so illegal states cannot be entered.
package nav

import (
	"fmt"
	"sync"
)

// View names one screen of the application.
type View string

const (
	ViewWelcome           View = "welcome"
	ViewWaitlist          View = "waitlist"
	ViewDashboard         View = "dashboard"
	ViewSettings          View = "settings"
	ViewAddPlantPhoto     View = "add-plant-photo"
	ViewAddPlantIdentify  View = "add-plant-identify"
	ViewPlantDetails      View = "plant-details"
	ViewLogForm           View = "log-form"
	ViewLogDetails        View = "log-details"
	ViewGardenLogDetails  View = "garden-log-details"
	ViewSocialPostDetails View = "social-post-details"
	ViewPhotoCollage      View = "photo-collage"
	ViewPlantAnalysis     View = "plant-analysis"
	ViewPlantAdvice       View = "plant-advice"
	ViewIdentifyCamera    View = "identify-camera"
	ViewProfessor         View = "professor"
	ViewPricing           View = "pricing"
	ViewWeatherDetails    View = "weather-details"
)

// AuthState is the authentication condition driving the entry view.
type AuthState string

const (
	AuthSignedOut AuthState = "signed-out"
	AuthPending   AuthState = "pending"
	AuthApproved  AuthState = "approved"
)

var (
	ErrIllegalTransition = fmt.Errorf("nav: transition not in table")
	ErrMissingSelection  = fmt.Errorf("nav: detail view requires a selection")
)

// Selection reports which entity ids are currently selected. The domain
// state store satisfies this.
type Selection interface {
	SelectedPlant() string
	SelectedLog() string
	SelectedPost() string
}

// transitions maps each view to the set of views reachable from it by an
// explicit navigation intent. Auth-state changes and controller landings
// bypass this table.
var transitions = map[View]map[View]bool{
	ViewWelcome:  {},
	ViewWaitlist: {ViewWelcome: true},
	ViewDashboard: {
		ViewSettings: true, ViewAddPlantPhoto: true, ViewAddPlantIdentify: true,
		ViewPlantDetails: true, ViewLogForm: true, ViewGardenLogDetails: true,
		ViewSocialPostDetails: true, ViewPhotoCollage: true, ViewIdentifyCamera: true,
		ViewProfessor: true, ViewPricing: true, ViewWeatherDetails: true,
	},
	ViewSettings:      {ViewDashboard: true, ViewPricing: true, ViewWeatherDetails: true},
	ViewAddPlantPhoto: {ViewDashboard: true, ViewAddPlantIdentify: true},
	ViewAddPlantIdentify: {
		ViewDashboard: true, ViewAddPlantPhoto: true, ViewIdentifyCamera: true,
	},
	ViewPlantDetails: {
		ViewDashboard: true, ViewLogForm: true, ViewLogDetails: true,
		ViewPlantAnalysis: true, ViewPlantAdvice: true, ViewPhotoCollage: true,
	},
	ViewLogForm:           {ViewDashboard: true, ViewPlantDetails: true},
	ViewLogDetails:        {ViewDashboard: true, ViewPlantDetails: true, ViewLogForm: true},
	ViewGardenLogDetails:  {ViewDashboard: true, ViewLogForm: true},
	ViewSocialPostDetails: {ViewDashboard: true},
	ViewPhotoCollage:      {ViewDashboard: true, ViewPlantDetails: true},
	ViewPlantAnalysis:     {ViewDashboard: true, ViewPlantDetails: true},
	ViewPlantAdvice:       {ViewDashboard: true, ViewPlantDetails: true},
	ViewIdentifyCamera:    {ViewDashboard: true, ViewAddPlantIdentify: true},
	ViewProfessor:         {ViewDashboard: true},
	ViewPricing:           {ViewDashboard: true, ViewSettings: true},
	ViewWeatherDetails:    {ViewDashboard: true, ViewSettings: true},
}

// guards name the selection each detail view requires before entry.
var guards = map[View]func(Selection) bool{
	ViewPlantDetails:      func(s Selection) bool { return s.SelectedPlant() != "" },
	ViewPlantAnalysis:     func(s Selection) bool { return s.SelectedPlant() != "" },
	ViewPlantAdvice:       func(s Selection) bool { return s.SelectedPlant() != "" },
	ViewLogDetails:        func(s Selection) bool { return s.SelectedLog() != "" },
	ViewGardenLogDetails:  func(s Selection) bool { return s.SelectedLog() != "" },
	ViewSocialPostDetails: func(s Selection) bool { return s.SelectedPost() != "" },
}

// Machine tracks the current view and validates every transition.
type Machine struct {
	mu        sync.Mutex
	current   View
	selection Selection
}

// NewMachine starts at the welcome view.
func NewMachine(selection Selection) *Machine {
	return &Machine{current: ViewWelcome, selection: selection}
}

// Current returns the active view.
func (m *Machine) Current() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Navigate applies a user navigation intent. The destination must be in the
// transition table for the current view and its guard must pass.
func (m *Machine) Navigate(to View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed, known := transitions[m.current]
	if !known || !allowed[to] {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.current, to)
	}
	if err := m.checkGuard(to); err != nil {
		return err
	}
	m.current = to
	return nil
}

// Land moves to a view on completion of a controller operation. Landings are
// data-driven rather than user-driven, so the transition table does not
// apply, but selection guards still do.
func (m *Machine) Land(to View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkGuard(to); err != nil {
		return err
	}
	m.current = to
	return nil
}

// ApplyAuthState moves to the entry view for an authentication change.
// Signing out always returns to welcome; approval only redirects when the
// user is still parked on an entry view.
func (m *Machine) ApplyAuthState(state AuthState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch state {
	case AuthSignedOut:
		m.current = ViewWelcome
	case AuthPending:
		m.current = ViewWaitlist
	case AuthApproved:
		if m.current == ViewWelcome || m.current == ViewWaitlist {
			m.current = ViewDashboard
		}
	}
}

func (m *Machine) checkGuard(to View) error {
	guard, guarded := guards[to]
	if !guarded {
		return nil
	}
	if m.selection == nil || !guard(m.selection) {
		return fmt.Errorf("%w: %s", ErrMissingSelection, to)
	}
	return nil
}
