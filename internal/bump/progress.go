package bump

// Progress receives step boundaries. *progress.Reporter implements it.
type Progress interface {
	Start(name string)
	Done()
	Fail()
	Skip(name, reason string)
}

// stepTracker is a nil-safe wrapper around Progress.
type stepTracker struct {
	p Progress
}

func (t stepTracker) start(name string) {
	if t.p != nil {
		t.p.Start(name)
	}
}

// finish closes the running step as done or failed depending on err.
func (t stepTracker) finish(err error) {
	if t.p == nil {
		return
	}
	if err != nil {
		t.p.Fail()
		return
	}
	t.p.Done()
}

func (t stepTracker) skip(name, reason string) {
	if t.p != nil {
		t.p.Skip(name, reason)
	}
}
