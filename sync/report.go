// SPDX-License-Identifier: GPL-3.0-or-later
package sync

// Outcome pairs one applied hunk with its error, nil on success.
type Outcome struct {
	Hunk Hunk
	Err  error
}

// Report aggregates the outcomes of one sync phase. A report never fails as
// a whole: per-hunk errors are data, callers filter on Err to decide what a
// partial failure means to them. Order across workers is not guaranteed.
type Report struct {
	Patch []Outcome
}

func NewReport() *Report {
	return &Report{Patch: []Outcome{}}
}

func (r *Report) Add(hunk Hunk, err error) {
	r.Patch = append(r.Patch, Outcome{Hunk: hunk, Err: err})
}

// Extend merges another report into this one by concatenation.
func (r *Report) Extend(other *Report) {
	r.Patch = append(r.Patch, other.Patch...)
}

func (r *Report) Failures() []Outcome {
	failures := []Outcome{}
	for _, o := range r.Patch {
		if o.Err != nil {
			failures = append(failures, o)
		}
	}
	return failures
}

func (r *Report) Succeeded() int {
	return len(r.Patch) - len(r.Failures())
}
