package batch

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

type recorder struct {
	calls []string
}

func (r *recorder) OnTotal(expected int) {
	r.calls = append(r.calls, fmt.Sprintf("total:%d", expected))
}

func (r *recorder) OnItem(source, dest string, result int, err error) {
	status := "ok"
	if err != nil {
		status = "err"
	}
	r.calls = append(r.calls, fmt.Sprintf("item:%s->%s:%s", source, dest, status))
}

func (r *recorder) OnComplete(walkSucceeded bool, err error) {
	r.calls = append(r.calls, fmt.Sprintf("complete:%t", walkSucceeded))
}

func numbers(items []string, planErr, finishErr error, finished *int) func() (Plan[string], error) {
	return func() (Plan[string], error) {
		if planErr != nil {
			return Plan[string]{}, planErr
		}
		return Plan[string]{
			Items: items,
			Finish: func() error {
				*finished++
				return finishErr
			},
		}, nil
	}
}

func process(in string) Item[int] {
	if in == "bad" {
		return Item[int]{Source: in, Dest: "/" + in, Err: errors.New("unreadable")}
	}
	return Item[int]{Source: in, Dest: "/" + in, Result: len(in)}
}

func TestSequence_PartialFailureCompletesSuccessfully(t *testing.T) {
	finished := 0
	seq := Sequence(numbers([]string{"ok1", "bad", "ok2"}, nil, nil, &finished), process)

	r := &recorder{}
	s := Observe(seq, r)

	want := []string{
		"total:3",
		"item:ok1->/ok1:ok",
		"item:bad->/bad:err",
		"item:ok2->/ok2:ok",
		"complete:true",
	}
	if !slices.Equal(r.calls, want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
	if s.Total != 3 || s.Succeeded != 2 || s.Failed != 1 || !s.WalkSucceeded {
		t.Errorf("unexpected summary %+v", s)
	}
	if finished != 1 {
		t.Errorf("Finish called %d times, want 1", finished)
	}
}

func TestSequence_PlanFailure(t *testing.T) {
	finished := 0
	planErr := errors.New("no such directory")
	r := &recorder{}
	s := Observe(Sequence(numbers(nil, planErr, nil, &finished), process), r)

	want := []string{"total:0", "complete:false"}
	if !slices.Equal(r.calls, want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
	if s.WalkSucceeded || !errors.Is(s.Err, planErr) {
		t.Errorf("unexpected summary %+v", s)
	}
	if finished != 0 {
		t.Errorf("Finish must not run when planning fails")
	}
}

func TestSequence_FinishFailure(t *testing.T) {
	finished := 0
	finishErr := errors.New("rename failed")
	s := Observe(Sequence(numbers([]string{"ok1"}, nil, finishErr, &finished), process), nil)

	if s.WalkSucceeded || !errors.Is(s.Err, finishErr) || s.Succeeded != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestSequence_EarlyStopStillFinishes(t *testing.T) {
	finished := 0
	seq := Sequence(numbers([]string{"a", "b", "c"}, nil, nil, &finished), process)

	items := 0
	for ev := range seq {
		if ev.Kind == EventItem {
			items++
			break
		}
	}
	if items != 1 {
		t.Errorf("expected to stop after one item, got %d", items)
	}
	if finished != 1 {
		t.Errorf("Finish called %d times, want 1", finished)
	}
}

func TestSequence_EarlyStopReportsFinishFailure(t *testing.T) {
	finishErr := errors.New("rename failed")
	var abandoned []error
	plan := func() (Plan[string], error) {
		return Plan[string]{
			Items:     []string{"a", "b"},
			Finish:    func() error { return finishErr },
			Abandoned: func(err error) { abandoned = append(abandoned, err) },
		}, nil
	}

	for ev := range Sequence(plan, process) {
		if ev.Kind == EventItem {
			break
		}
	}
	if len(abandoned) != 1 || !errors.Is(abandoned[0], finishErr) {
		t.Errorf("expected the finish error once, got %v", abandoned)
	}

	// A batch consumed to the end reports the failure in Complete only.
	abandoned = nil
	s := Observe(Sequence(plan, process), nil)
	if !errors.Is(s.Err, finishErr) || len(abandoned) != 0 {
		t.Errorf("summary %+v, abandoned %v", s, abandoned)
	}
}

func TestFuncs_NilFieldsAreSkipped(t *testing.T) {
	var totals []int
	f := Funcs[int]{Total: func(n int) { totals = append(totals, n) }}
	finished := 0
	Observe(Sequence(numbers([]string{"x"}, nil, nil, &finished), process), Observer[int](f))
	if !slices.Equal(totals, []int{1}) {
		t.Errorf("totals = %v", totals)
	}
}

func TestEventKindString(t *testing.T) {
	if EventTotal.String() != "total" || EventItem.String() != "item" || EventComplete.String() != "complete" {
		t.Errorf("unexpected EventKind names")
	}
}
