package controller

import (
	"github.com/theirongolddev/subkill/internal/model"
	"github.com/theirongolddev/subkill/internal/view"
)

// Tab names a dashboard section.
type Tab string

// Dashboard tabs, in display order.
const (
	TabSubscriptions Tab = "subscriptions"
	TabAnalytics     Tab = "analytics"
	TabAdd           Tab = "add"
	TabAchievements  Tab = "achievements"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabSubscriptions, TabAnalytics, TabAdd, TabAchievements}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	for _, known := range Tabs {
		if t == known {
			return true
		}
	}
	return false
}

// Action is a user intent handled by Dispatch.
type Action interface {
	action() string
}

// Reload refetches the whole dashboard.
type Reload struct{}

// SwitchTab changes the visible section.
type SwitchTab struct{ Tab Tab }

// OpenModal binds the detail modal to a subscription.
type OpenModal struct{ SubID int64 }

// CloseModal dismisses the detail modal.
type CloseModal struct{}

// SaveUsage records a new usage level.
type SaveUsage struct {
	SubID int64
	Level model.UsageLevel
}

// CancelSubscription cancels after confirmation.
type CancelSubscription struct{ SubID int64 }

// FindAlternatives searches for cheaper replacements.
type FindAlternatives struct {
	SubID int64
	Name  string
}

// Submit creates a subscription from the add form.
type Submit struct{ Form Form }

// QuickAdd prefills the add form from a catalog tile.
type QuickAdd struct{ Entry view.QuickAdd }

func (Reload) action() string             { return "reload" }
func (SwitchTab) action() string          { return "switch_tab" }
func (OpenModal) action() string          { return "open_modal" }
func (CloseModal) action() string         { return "close_modal" }
func (SaveUsage) action() string          { return "save_usage" }
func (CancelSubscription) action() string { return "cancel_subscription" }
func (FindAlternatives) action() string   { return "find_alternatives" }
func (Submit) action() string             { return "submit" }
func (QuickAdd) action() string           { return "quick_add" }

// Form holds the add form's raw field values.
type Form struct {
	Name     string
	Price    string
	Category string
	Cycle    string
	Date     string // YYYY-MM-DD, optional
	Trial    bool
}

// Outcome reports what a dispatched action changed. The zero value means
// nothing visible happened.
type Outcome struct {
	Toast        string
	Reloaded     bool
	Alternatives *view.AlternativesView
	Err          error
}
