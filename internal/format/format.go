package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var shortMonthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Money renders an amount in rand the way the payroll screens expect,
// e.g. 12345.6 -> "R 12,345.60". The API sends monetary fields both as
// numbers and as decimal strings, so MoneyString exists alongside.
func Money(amount float64) string {
	neg := amount < 0 || math.Signbit(amount)
	v := math.Abs(amount)
	whole := int64(v)
	cents := int64(math.Round((v - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("R ")
	b.WriteString(groupThousands(whole))
	fmt.Fprintf(&b, ".%02d", cents)
	return b.String()
}

func MoneyString(value string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return Money(0)
	}
	return Money(v)
}

func groupThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

// dateLayouts lists the formats the API has been seen emitting for dates.
// First match wins.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

func parseAny(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Date renders "02 Jan 2026" or an em dash for empty/unparseable input.
func Date(value string) string {
	parsed, ok := parseAny(value)
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%02d %s %d", parsed.Day(), shortMonthNames[parsed.Month()-1], parsed.Year())
}

// TimeOfDay renders "08:05" or "--:--" when the timestamp is absent,
// which is how a missing clock-in is shown.
func TimeOfDay(value string) string {
	parsed, ok := parseAny(value)
	if !ok {
		return "--:--"
	}
	return parsed.Format("15:04")
}

// Hours renders fractional hours as "7h 30m".
func Hours(hours float64) string {
	if hours <= 0 {
		return "0h 0m"
	}
	h := int(hours)
	m := int(math.Round((hours - float64(h)) * 60))
	if m == 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// RelativeTime describes how long ago a timestamp was, relative to now.
func RelativeTime(value string, now time.Time) string {
	parsed, ok := parseAny(value)
	if !ok {
		return "recently"
	}
	diff := now.Sub(parsed)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 2*time.Hour:
		return "1 hour ago"
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	}
	days := int(diff.Hours() / 24)
	switch {
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 14:
		return "1 week ago"
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	case days < 60:
		return "1 month ago"
	}
	return fmt.Sprintf("%d months ago", days/30)
}

func Initials(firstName, lastName string) string {
	var b strings.Builder
	if firstName != "" {
		b.WriteString(strings.ToUpper(firstName[:1]))
	}
	if lastName != "" {
		b.WriteString(strings.ToUpper(lastName[:1]))
	}
	return b.String()
}

func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// PeriodName renders "March 2026" for a month/year pair.
func PeriodName(month, year int) string {
	if month < 1 || month > 12 {
		return strconv.Itoa(year)
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// TaxYearLabel renders the SARS tax year span, e.g. "2026" ->
// "1 Mar 2025 – 28 Feb 2026".
func TaxYearLabel(taxYear string) string {
	y, err := strconv.Atoi(strings.TrimSpace(taxYear))
	if err != nil {
		return taxYear
	}
	return fmt.Sprintf("1 Mar %d – 28 Feb %d", y-1, y)
}

// DueStatus words a statutory due date relative to today.
func DueStatus(dueDate string, now time.Time) string {
	parsed, ok := parseAny(dueDate)
	if !ok {
		return ""
	}
	days := int(math.Ceil(parsed.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		return "Due today"
	case days <= 7:
		return fmt.Sprintf("Due in %d days", days)
	}
	return "Due " + Date(dueDate)
}

// Percent is the chart helper: part of total as a whole percentage,
// zero when the total is zero.
func Percent(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}
