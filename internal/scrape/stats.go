package scrape

// Confidence bucket boundaries for run statistics.
const (
	highConfidenceFloor   = 0.7
	mediumConfidenceFloor = 0.4
)

// Stats accumulates the outcome of one scrape run. It is owned by a single
// Scraper and mutated only by that Scraper's sequential calls, so it needs no
// locking; construct a fresh one per run.
type Stats struct {
	Total       int
	Success     int
	Failed      int
	RSSFallback int

	HighConfidence   int
	MediumConfidence int
	LowConfidence    int
	TotalConfidence  float64

	FailureReasons map[string]int
}

// NewStats returns an empty accumulator ready for use.
func NewStats() *Stats {
	return &Stats{FailureReasons: make(map[string]int)}
}

func (s *Stats) recordSuccess(confidence float64) {
	s.Success++
	s.TotalConfidence += confidence
	switch {
	case confidence >= highConfidenceFloor:
		s.HighConfidence++
	case confidence >= mediumConfidenceFloor:
		s.MediumConfidence++
	default:
		s.LowConfidence++
	}
}

func (s *Stats) recordFailure(reason string) {
	s.Failed++
	if reason != "" {
		s.FailureReasons[reason]++
	}
}

// SuccessRate returns successes as a fraction of the total, zero for an
// empty run.
func (s *Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total)
}

// AverageConfidence averages over successful articles only.
func (s *Stats) AverageConfidence() float64 {
	if s.Success == 0 {
		return 0
	}
	return s.TotalConfidence / float64(s.Success)
}

// Copy returns an independent snapshot, including the reason map.
func (s *Stats) Copy() Stats {
	out := *s
	out.FailureReasons = make(map[string]int, len(s.FailureReasons))
	for k, v := range s.FailureReasons {
		out.FailureReasons[k] = v
	}
	return out
}
