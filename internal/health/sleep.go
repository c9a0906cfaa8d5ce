package health

import "github.com/aazoaer/health-manager/internal/model"

const SleepGoalMinutes = 480

const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

// qualityRank orders qualities from best (0) to worst.
var qualityRank = map[string]int{
	QualityExcellent: 0,
	QualityGood:      1,
	QualityFair:      2,
	QualityPoor:      3,
}

func ValidQuality(q string) bool {
	_, ok := qualityRank[q]
	return ok
}

// BestQuality returns the best quality among records. Unknown labels rank
// as fair.
func BestQuality(records []model.SleepRecord) string {
	best := QualityFair
	bestRank := qualityRank[QualityFair]
	first := true
	for _, r := range records {
		rank, ok := qualityRank[r.Quality]
		q := r.Quality
		if !ok {
			rank, q = qualityRank[QualityFair], QualityFair
		}
		if first || rank < bestRank {
			best, bestRank, first = q, rank, false
		}
	}
	return best
}

// SleepGrade combines total minutes slept and the best quality into a
// letter grade. No sleep is always F.
func SleepGrade(minutes int, quality string) string {
	if minutes <= 0 {
		return "F"
	}
	points := sleepDurationPoints(minutes)
	switch quality {
	case QualityExcellent:
		points += 2
	case QualityGood:
		points++
	case QualityPoor:
		points--
	}
	switch {
	case points >= 4:
		return "A"
	case points == 3:
		return "B"
	case points == 2:
		return "C"
	case points == 1:
		return "D"
	default:
		return "F"
	}
}

func sleepDurationPoints(m int) int {
	switch {
	case m >= 420 && m <= 540:
		return 3
	case m >= 360 && m <= 600:
		return 2
	case m >= 300 && m <= 660:
		return 1
	default:
		return 0
	}
}

var gradeValues = map[string]float64{"A": 1.0, "B": 0.8, "C": 0.6, "D": 0.4, "F": 0.2}

// GradeValue maps a sleep grade onto 0..1 for charts. Unknown grades are 0.
func GradeValue(grade string) float64 {
	return gradeValues[grade]
}
