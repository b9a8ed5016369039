// Package hostcheck validates host readiness before any mutating action.
package hostcheck

// Status is the outcome of a single preflight check.
type Status string

const (
	// StatusPass means the check succeeded.
	StatusPass Status = "pass"
	// StatusWarn means the check found an advisory problem; the run continues.
	StatusWarn Status = "warn"
	// StatusFail means the check found a fatal problem; the run must abort.
	StatusFail Status = "fail"
)

// Result is the outcome of one preflight check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report collects the results of a preflight pass.
type Report struct {
	Results []Result
}

// Add appends a result.
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Fatal returns true if any check failed.
func (r *Report) Fatal() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}

// Warnings returns the advisory findings.
func (r *Report) Warnings() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusWarn {
			out = append(out, res)
		}
	}
	return out
}
