// Package batch describes the progress of multi-file operations.
//
// A batch is a pull-based sequence of events: exactly one Total event first,
// then one Item event per processed item in traversal order, then exactly one
// Complete event. Item failures are carried in the event and never stop the
// batch. Only a failure to plan or finish the walk is reported as an
// unsuccessful Complete event.
//
//	for ev := range sess.AddDirectory(src, dest, pub, nil) {
//	    switch ev.Kind {
//	    case batch.EventTotal:
//	        fmt.Println("adding", ev.Total, "files")
//	    case batch.EventItem:
//	        ...
//	    }
//	}
//
// Observe adapts a sequence to the three-callback Observer form.
package batch

import "iter"

// EventKind tells which phase of the batch an event belongs to.
type EventKind int

const (
	EventTotal EventKind = iota
	EventItem
	EventComplete
)

func (k EventKind) String() string {
	switch k {
	case EventTotal:
		return "total"
	case EventItem:
		return "item"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event is one step of a batch. T is the per-item result type.
type Event[T any] struct {
	Kind EventKind

	// Total is set on EventTotal.
	Total int

	// Source, Dest, Result and Err are set on EventItem.
	Source string
	Dest   string
	Result T
	Err    error

	// WalkSucceeded is set on EventComplete. Err carries the walk failure
	// when it is false.
	WalkSucceeded bool
}

// Item is the outcome of processing one planned item.
type Item[T any] struct {
	Source string
	Dest   string
	Result T
	Err    error
}

// Plan lists what a batch will process. Finish, when set, runs after the last
// item (or after the consumer stops early) and commits the work done so far.
// A consumer that stopped early never sees a Complete event, so a Finish
// failure at that point goes to Abandoned instead.
type Plan[I any] struct {
	Items     []I
	Finish    func() error
	Abandoned func(error)
}

// Sequence builds a batch from a planning step and a per-item processor.
// A planning error yields Total(0) followed by an unsuccessful Complete.
func Sequence[I, T any](plan func() (Plan[I], error), process func(I) Item[T]) iter.Seq[Event[T]] {
	return func(yield func(Event[T]) bool) {
		p, err := plan()
		if err != nil {
			if yield(Event[T]{Kind: EventTotal}) {
				yield(Event[T]{Kind: EventComplete, Err: err})
			}
			return
		}

		finish := func() error {
			if p.Finish == nil {
				return nil
			}
			return p.Finish()
		}
		abandon := func() {
			if err := finish(); err != nil && p.Abandoned != nil {
				p.Abandoned(err)
			}
		}

		if !yield(Event[T]{Kind: EventTotal, Total: len(p.Items)}) {
			abandon()
			return
		}
		for _, in := range p.Items {
			it := process(in)
			if !yield(Event[T]{Kind: EventItem, Source: it.Source, Dest: it.Dest, Result: it.Result, Err: it.Err}) {
				abandon()
				return
			}
		}
		if err := finish(); err != nil {
			yield(Event[T]{Kind: EventComplete, Err: err})
			return
		}
		yield(Event[T]{Kind: EventComplete, WalkSucceeded: true})
	}
}

// Observer receives a batch as three callbacks.
type Observer[T any] interface {
	OnTotal(expected int)
	OnItem(source, dest string, result T, err error)
	OnComplete(walkSucceeded bool, err error)
}

// Funcs adapts plain functions to Observer. Nil fields are skipped.
type Funcs[T any] struct {
	Total    func(expected int)
	Item     func(source, dest string, result T, err error)
	Complete func(walkSucceeded bool, err error)
}

func (f Funcs[T]) OnTotal(expected int) {
	if f.Total != nil {
		f.Total(expected)
	}
}

func (f Funcs[T]) OnItem(source, dest string, result T, err error) {
	if f.Item != nil {
		f.Item(source, dest, result, err)
	}
}

func (f Funcs[T]) OnComplete(walkSucceeded bool, err error) {
	if f.Complete != nil {
		f.Complete(walkSucceeded, err)
	}
}

// Summary aggregates a finished batch.
type Summary struct {
	Total         int
	Succeeded     int
	Failed        int
	WalkSucceeded bool
	Err           error
}

// Observe drains seq, forwarding every event to o (which may be nil), and
// returns the aggregate.
func Observe[T any](seq iter.Seq[Event[T]], o Observer[T]) Summary {
	var s Summary
	for ev := range seq {
		switch ev.Kind {
		case EventTotal:
			s.Total = ev.Total
			if o != nil {
				o.OnTotal(ev.Total)
			}
		case EventItem:
			if ev.Err != nil {
				s.Failed++
			} else {
				s.Succeeded++
			}
			if o != nil {
				o.OnItem(ev.Source, ev.Dest, ev.Result, ev.Err)
			}
		case EventComplete:
			s.WalkSucceeded = ev.WalkSucceeded
			s.Err = ev.Err
			if o != nil {
				o.OnComplete(ev.WalkSucceeded, ev.Err)
			}
		}
	}
	return s
}
