package domain

// TirStats summarizes how a set of readings falls against a target range.
type TirStats struct {
	Total      int
	InRange    int
	Below      int
	Above      int
	Percentage float64
}

// ComputeTimeInRange counts readings against the target corridor. Bounds are
// inclusive, zero readings yield zero percent and the three buckets always
// add up to Total.
func ComputeTimeInRange(readings []Reading, target TirRange) TirStats {
	stats := TirStats{Total: len(readings)}
	for _, r := range readings {
		switch {
		case target.Below(r.Value):
			stats.Below++
		case target.Above(r.Value):
			stats.Above++
		default:
			stats.InRange++
		}
	}
	if stats.Total > 0 {
		stats.Percentage = float64(stats.InRange) * 100 / float64(stats.Total)
	}
	return stats
}
