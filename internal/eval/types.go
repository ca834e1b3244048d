package eval

// #region eval-metric
// EvalMetric captures a single invariant check. Value is the number of
// offending items.
type EvalMetric struct {
	Name  string
	Value int
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-cycle validation.
type EvalResult struct {
	Passed   bool
	Metrics  []EvalMetric
	Failures []string // one line per offending item
	Reason   string
}

// Failed returns the names of the checks that did not pass.
func (r EvalResult) Failed() []string {
	var names []string
	for _, m := range r.Metrics {
		if !m.Pass {
			names = append(names, m.Name)
		}
	}
	return names
}

// #endregion eval-result
