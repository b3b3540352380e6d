package rotation

import (
	"time"

	"github.com/mmynk/susu/internal/models"
)

// DueDate returns when contributions for round are due, counting from the
// group's start date. Monthly cycles step by calendar month.
func DueDate(g *models.Group, round int) time.Time {
	start := time.Unix(g.StartDate, 0).UTC()
	if round <= 1 {
		return start
	}
	n := round - 1
	switch g.CycleFrequency {
	case models.FrequencyDaily:
		return start.AddDate(0, 0, n)
	case models.FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case models.FrequencyBiWeekly:
		return start.AddDate(0, 0, 14*n)
	case models.FrequencyMonthly:
		return start.AddDate(0, n, 0)
	default:
		return start
	}
}
