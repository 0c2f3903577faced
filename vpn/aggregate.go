package vpn

// Aggregate applies the voting policy to a set of probe results.
//
//  1. Two or more Active verdicts: StatusActive.
//  2. Otherwise, every verdict Inactive: StatusInactive.
//  3. Anything else: StatusUnknown.
//
// A single Active verdict is never enough on its own. The result depends
// only on the multiset of verdicts, not their order.
func Aggregate(results []ProbeResult) Status {
	verdicts := make([]Verdict, len(results))
	for i, r := range results {
		verdicts[i] = r.Verdict
	}
	return AggregateVerdicts(verdicts...)
}

// AggregateVerdicts is Aggregate over bare verdicts.
func AggregateVerdicts(verdicts ...Verdict) Status {
	if len(verdicts) == 0 {
		return StatusUnknown
	}

	var active, inactive int
	for _, v := range verdicts {
		switch v {
		case VerdictActive:
			active++
		case VerdictInactive:
			inactive++
		}
	}

	switch {
	case active >= 2:
		return StatusActive
	case inactive == len(verdicts):
		return StatusInactive
	default:
		return StatusUnknown
	}
}
