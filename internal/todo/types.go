// Package todo holds the task list state and the operations that mutate it.
package todo

import (
	"fmt"
	"strings"
)

// Task represents a single to-do entry.
type Task struct {
	ID        int64  `json:"id" yaml:"id" toml:"id"`
	Text      string `json:"text" yaml:"text" toml:"text"`
	Completed bool   `json:"completed" yaml:"completed" toml:"completed"`
}

// Filter selects which tasks are visible.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterActive, FilterCompleted}
}

// ParseFilter converts a filter name to a Filter.
// An empty name selects FilterAll.
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("invalid filter %q, must be one of: all, active, completed", name)
	}
}

// Match reports whether the task is visible under the filter.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Next returns the filter after f in display order, wrapping around.
func (f Filter) Next() Filter {
	all := Filters()
	for i, candidate := range all {
		if candidate == f {
			return all[(i+1)%len(all)]
		}
	}
	return FilterAll
}

// Title returns the tab label for the filter.
func (f Filter) Title() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// View is the result of Store.Query.
type View struct {
	// Visible holds the tasks matching Filter, in insertion order.
	Visible []Task
	// ActiveCount counts incomplete tasks across the whole list,
	// regardless of Filter.
	ActiveCount int
	Filter      Filter
}

// CountLabel formats the active count the way the list footer shows it.
func (v View) CountLabel() string {
	if v.ActiveCount == 1 {
		return "1 task left"
	}
	return fmt.Sprintf("%d tasks left", v.ActiveCount)
}
