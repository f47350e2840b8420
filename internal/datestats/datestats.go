// Package datestats computes the numerology statistics of a calendar date.
package datestats

import (
	"strconv"
	"time"

	"github.com/pbaille/gemrank/internal/domain"
)

// Statistic names, in the order For returns them
const (
	DayOfYear         = "Day of Year"
	FullNumerology    = "Full Numerology"
	ReducedNumerology = "Reduced Numerology"
	ShortNumerology   = "Short Numerology"
	SingleDigits      = "Single Digits"
	MonthDay          = "Month Day"
	WeekOfYear        = "Week of Year"
)

// For returns the date statistics of date. Statistics without a secondary
// value carry domain.NotApplicable.
func For(date time.Time) []domain.DateStat {
	month := int(date.Month())
	day := date.Day()
	year := date.Year()
	century, short := year/100, year%100

	yday := date.YearDay()
	daysInYear := time.Date(year, time.December, 31, 0, 0, 0, 0, date.Location()).YearDay()

	// Weeks count from January 1st, so the last days of December stay in this year
	week := (yday-1)/7 + 1
	weeksLeft := max(52-week, 0)

	return []domain.DateStat{
		pair(DayOfYear, yday, daysInYear-yday),
		single(FullNumerology, month+day+century+short),
		single(ReducedNumerology, month+day+digitSum(year)),
		single(ShortNumerology, month+day+short),
		single(SingleDigits, digitSum(month)+digitSum(day)+digitSum(year)),
		single(MonthDay, month+day),
		pair(WeekOfYear, week, weeksLeft),
	}
}

func pair(name string, value, secondary int) domain.DateStat {
	return domain.DateStat{Name: name, Value: strconv.Itoa(value), Secondary: strconv.Itoa(secondary)}
}

func single(name string, value int) domain.DateStat {
	return domain.DateStat{Name: name, Value: strconv.Itoa(value), Secondary: domain.NotApplicable}
}

func digitSum(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}
