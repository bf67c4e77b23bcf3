package mapping

import (
	stderrors "errors"
	"strings"
)

// Report is the immutable, ordered list of data errors of one run.
type Report struct {
	errs []Error
}

// NewReport freezes a copy of errs.
func NewReport(errs []Error) Report {
	out := make([]Error, len(errs))
	copy(out, errs)
	return Report{errs: out}
}

// HasErrors reports whether any error was recorded.
func (r Report) HasErrors() bool { return len(r.errs) > 0 }

// Count returns the number of recorded errors.
func (r Report) Count() int { return len(r.errs) }

// Errors returns a copy of the errors in discovery order.
func (r Report) Errors() []Error {
	out := make([]Error, len(r.errs))
	copy(out, r.errs)
	return out
}

// Messages returns the user-facing message of every error.
func (r Report) Messages() []string {
	out := make([]string, 0, len(r.errs))
	for _, e := range r.errs {
		out = append(out, e.Message)
	}
	return out
}

// ByPath groups messages by JSON path, e.g. for form validation summaries.
func (r Report) ByPath() map[string][]string {
	out := make(map[string][]string, len(r.errs))
	for _, e := range r.errs {
		out[e.Path] = append(out[e.Path], e.Message)
	}
	return out
}

// Err joins every error into one, or returns nil for an empty report.
func (r Report) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.errs))
	for i := range r.errs {
		e := r.errs[i]
		errs = append(errs, &e)
	}
	return stderrors.Join(errs...)
}

func (r Report) String() string {
	return strings.Join(r.Messages(), "\n")
}
