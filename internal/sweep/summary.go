package sweep

import "github.com/unklstewy/shipnav/pkg/navigation"

// Summary aggregates a sweep's results.
type Summary struct {
	Total     int
	Arrived   int
	Exhausted int
	Failed    int

	// MeanTotalTime and MeanFinalDistance cover runs that did not fail
	MeanTotalTime     float64
	MeanFinalDistance float64
}

// Summarize counts outcomes and averages the successful runs.
// Zero-valued results (jobs that never ran) are not counted.
func Summarize(results []Result) Summary {
	var (
		s       Summary
		ok      int
		sumTime float64
		sumDist float64
	)

	for _, r := range results {
		if r.Info == nil && r.Err == nil {
			continue
		}
		s.Total++

		switch r.Status() {
		case navigation.StatusArrived:
			s.Arrived++
		case navigation.StatusExhausted:
			s.Exhausted++
		default:
			s.Failed++
			continue
		}

		ok++
		sumTime += r.Info.TotalTime()
		sumDist += r.Info.FinalDistance()
	}

	if ok > 0 {
		s.MeanTotalTime = sumTime / float64(ok)
		s.MeanFinalDistance = sumDist / float64(ok)
	}
	return s
}
