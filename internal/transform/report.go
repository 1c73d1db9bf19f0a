package transform

import "errors"

// Report summarizes one engine run.
type Report struct {
	Target Target
	Passes []string
	Errors []*TransformError
}

// Count returns the number of isolated failures of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, e := range r.Errors {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Err joins every isolated failure, or returns nil.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
