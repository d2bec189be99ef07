package format

import (
	"testing"
	"time"
)

func TestMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "R 0.00"},
		{12345.6, "R 12,345.60"},
		{999.995, "R 1,000.00"},
		{1000000, "R 1,000,000.00"},
		{-2500.5, "-R 2,500.50"},
	}
	for _, tc := range cases {
		if got := Money(tc.in); got != tc.want {
			t.Errorf("Money(%v)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := MoneyString("20000.00"); got != "R 20,000.00" {
		t.Errorf("got %q", got)
	}
	if got := MoneyString(" 150.5 "); got != "R 150.50" {
		t.Errorf("got %q", got)
	}
	if got := MoneyString("not a number"); got != "R 0.00" {
		t.Errorf("got %q", got)
	}
}

func TestDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-03-05", "05 Mar 2026"},
		{"2026-03-05T08:15:00Z", "05 Mar 2026"},
		{"2026-03-05 08:15:00", "05 Mar 2026"},
		{"2026/03/05", "05 Mar 2026"},
		{"", "—"},
		{"nonsense", "—"},
	}
	for _, tc := range cases {
		if got := Date(tc.in); got != tc.want {
			t.Errorf("Date(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDay(t *testing.T) {
	if got := TimeOfDay("2026-03-05T08:05:00Z"); got != "08:05" {
		t.Errorf("got %q", got)
	}
	if got := TimeOfDay(""); got != "--:--" {
		t.Errorf("got %q", got)
	}
}

func TestHours(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0h 0m"},
		{-1, "0h 0m"},
		{7.5, "7h 30m"},
		{8.999, "9h 0m"},
		{0.25, "0h 15m"},
	}
	for _, tc := range cases {
		if got := Hours(tc.in); got != tc.want {
			t.Errorf("Hours(%v)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want string
	}{
		{"2026-03-15T11:59:40Z", "just now"},
		{"2026-03-15T11:30:00Z", "30 minutes ago"},
		{"2026-03-15T10:30:00Z", "1 hour ago"},
		{"2026-03-15T06:00:00Z", "6 hours ago"},
		{"2026-03-14T11:00:00Z", "yesterday"},
		{"2026-03-12T12:00:00Z", "3 days ago"},
		{"2026-03-05T12:00:00Z", "1 week ago"},
		{"2026-02-26T12:00:00Z", "2 weeks ago"},
		{"2026-02-10T12:00:00Z", "1 month ago"},
		{"2025-12-15T12:00:00Z", "3 months ago"},
		{"", "recently"},
	}
	for _, tc := range cases {
		if got := RelativeTime(tc.in, now); got != tc.want {
			t.Errorf("RelativeTime(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestInitials(t *testing.T) {
	if got := Initials("thandi", "Nkosi"); got != "TN" {
		t.Errorf("got %q", got)
	}
	if got := Initials("", "Nkosi"); got != "N" {
		t.Errorf("got %q", got)
	}
	if got := Initials("", ""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestPeriodName(t *testing.T) {
	if got := PeriodName(3, 2026); got != "March 2026" {
		t.Errorf("got %q", got)
	}
	if got := PeriodName(0, 2026); got != "2026" {
		t.Errorf("got %q", got)
	}
	if got := MonthName(13); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestTaxYearLabel(t *testing.T) {
	if got := TaxYearLabel("2026"); got != "1 Mar 2025 – 28 Feb 2026" {
		t.Errorf("got %q", got)
	}
	if got := TaxYearLabel("2025-2026"); got != "2025-2026" {
		t.Errorf("got %q", got)
	}
}

func TestDueStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := DueStatus("2026-02-24", now); got != "5 days overdue" {
		t.Errorf("got %q", got)
	}
	if got := DueStatus("2026-03-01", now); got != "Due today" {
		t.Errorf("got %q", got)
	}
	if got := DueStatus("2026-03-04", now); got != "Due in 3 days" {
		t.Errorf("got %q", got)
	}
	if got := DueStatus("2026-04-07", now); got != "Due 07 Apr 2026" {
		t.Errorf("got %q", got)
	}
	if got := DueStatus("", now); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1, 3); got != 33 {
		t.Errorf("got %d", got)
	}
	if got := Percent(5, 0); got != 0 {
		t.Errorf("got %d", got)
	}
	if got := Percent(3, 3); got != 100 {
		t.Errorf("got %d", got)
	}
}

func TestStatusBadges(t *testing.T) {
	if got := AttendanceBadge("present"); got == "" {
		t.Error("missing badge for present")
	}
	if got := AttendanceBadge("no-such-status"); got == "" {
		t.Error("missing fallback badge")
	}
	if LeaveBadge("approved") == LeaveBadge("rejected") {
		t.Error("approved and rejected share a badge")
	}
	if PayrollIcon("paid") == "" {
		t.Error("missing paid icon")
	}
}
