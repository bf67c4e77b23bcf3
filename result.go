package jsonmapper

import "github.com/Station-Manager/jsonmapper/mapping"

// Result is the outcome of MapWithReport: the best-effort value and every data error met on the way.
type Result struct {
	Value  any
	Report mapping.Report
}

// HasErrors reports whether the report holds any error.
func (r Result) HasErrors() bool { return r.Report.HasErrors() }

// Err returns the report's errors joined, or nil.
func (r Result) Err() error { return r.Report.Err() }
