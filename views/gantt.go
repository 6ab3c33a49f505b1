package views

import (
	"sort"
	"time"

	"github.com/lawrns/foco/types"
)

// Window bounds a gantt timeline. The zero value means fit-to-data: the
// window stretches to cover every dated task and milestone, so a plain
// render needs no flags.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains reports whether t falls inside the window, inclusive on both
// edges.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// GanttRow is one timeline bar. Start and End are clamped to the view
// window; the Clamped flags mark bars cut off at an edge.
type GanttRow struct {
	Task         types.Task `json:"task"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	ClampedStart bool       `json:"clamped_start,omitempty"`
	ClampedEnd   bool       `json:"clamped_end,omitempty"`
}

// GanttMarker is one milestone pin on the timeline.
type GanttMarker struct {
	Milestone types.Milestone `json:"milestone"`
	At        time.Time       `json:"at"`
}

// GanttView is the assembled timeline. Rows are ordered by start, then
// end, then ID; markers by time.
type GanttView struct {
	Window  Window        `json:"window"`
	Rows    []GanttRow    `json:"rows"`
	Markers []GanttMarker `json:"markers"`

	// Unscheduled holds tasks with neither a start nor a due date. Dated
	// tasks entirely outside the window are simply out of frame and do
	// not appear at all.
	Unscheduled []types.Task `json:"unscheduled"`
}

// Gantt lays tasks and milestones onto a timeline. A task with both dates
// renders as a bar, a task with one date as a point at it; undated tasks
// land in the unscheduled bucket. Milestones pin markers at their due
// dates. Unset window edges are derived from the data.
func Gantt(tasks []types.Task, milestones []types.Milestone, window Window) GanttView {
	if window.From.IsZero() || window.To.IsZero() {
		fit := fitWindow(tasks, milestones)
		if window.From.IsZero() {
			window.From = fit.From
		}
		if window.To.IsZero() {
			window.To = fit.To
		}
	}
	if window.To.Before(window.From) {
		window.To = window.From
	}

	view := GanttView{
		Window:      window,
		Rows:        []GanttRow{},
		Markers:     []GanttMarker{},
		Unscheduled: []types.Task{},
	}

	for _, t := range tasks {
		start, end, ok := span(t)
		if !ok {
			view.Unscheduled = append(view.Unscheduled, t)
			continue
		}
		if end.Before(window.From) || start.After(window.To) {
			continue
		}
		row := GanttRow{Task: t, Start: start, End: end}
		if start.Before(window.From) {
			row.Start = window.From
			row.ClampedStart = true
		}
		if end.After(window.To) {
			row.End = window.To
			row.ClampedEnd = true
		}
		view.Rows = append(view.Rows, row)
	}

	for _, m := range milestones {
		if m.DueAt == nil || !window.Contains(*m.DueAt) {
			continue
		}
		view.Markers = append(view.Markers, GanttMarker{Milestone: m, At: *m.DueAt})
	}

	sort.SliceStable(view.Rows, func(i, j int) bool {
		a, b := view.Rows[i], view.Rows[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		return a.Task.ID < b.Task.ID
	})
	sort.SliceStable(view.Markers, func(i, j int) bool {
		a, b := view.Markers[i], view.Markers[j]
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		return a.Milestone.ID < b.Milestone.ID
	})
	return view
}

// span resolves a task's bar. One date renders as a point at it; a start
// after the due date collapses to the due point rather than drawing a
// backwards bar.
func span(t types.Task) (start, end time.Time, ok bool) {
	switch {
	case t.StartAt == nil && t.DueAt == nil:
		return time.Time{}, time.Time{}, false
	case t.StartAt == nil:
		return *t.DueAt, *t.DueAt, true
	case t.DueAt == nil:
		return *t.StartAt, *t.StartAt, true
	}
	start, end = *t.StartAt, *t.DueAt
	if start.After(end) {
		start = end
	}
	return start, end, true
}

// fitWindow finds the smallest window covering every dated task and
// milestone. Zero when nothing carries a date.
func fitWindow(tasks []types.Task, milestones []types.Milestone) Window {
	var w Window
	grow := func(from, to time.Time) {
		if w.From.IsZero() || from.Before(w.From) {
			w.From = from
		}
		if w.To.IsZero() || to.After(w.To) {
			w.To = to
		}
	}
	for _, t := range tasks {
		if start, end, ok := span(t); ok {
			grow(start, end)
		}
	}
	for _, m := range milestones {
		if m.DueAt != nil {
			grow(*m.DueAt, *m.DueAt)
		}
	}
	return w
}
