package format

// Status lookup tables for the badge and icon columns. Every table has a
// default entry so an unknown status from the server still renders.

var attendanceBadges = map[string]string{
	"present":        "present",
	"absent":         "absent",
	"late":           "late",
	"half_day":       "half-day",
	"on_leave":       "on-leave",
	"not_clocked_in": "absent",
}

var attendanceIcons = map[string]string{
	"present":        "[ok]",
	"absent":         "[x]",
	"late":           "[late]",
	"half_day":       "[half]",
	"on_leave":       "[leave]",
	"not_clocked_in": "[--]",
}

var leaveBadges = map[string]string{
	"pending":   "pending",
	"approved":  "approved",
	"rejected":  "rejected",
	"cancelled": "cancelled",
}

var leaveIcons = map[string]string{
	"pending":   "[..]",
	"approved":  "[ok]",
	"rejected":  "[x]",
	"cancelled": "[--]",
}

var payrollBadges = map[string]string{
	"draft":     "draft",
	"processed": "processed",
	"paid":      "paid",
}

var payrollIcons = map[string]string{
	"draft":     "[d]",
	"processed": "[ok]",
	"paid":      "[$]",
}

var submissionBadges = map[string]string{
	"draft":        "draft",
	"submitted":    "submitted",
	"acknowledged": "acknowledged",
	"rejected":     "rejected",
}

var paymentBadges = map[string]string{
	"pending": "pending",
	"paid":    "paid",
	"overdue": "overdue",
	"partial": "partial",
}

var certificateBadges = map[string]string{
	"draft":  "draft",
	"final":  "final",
	"issued": "issued",
}

func lookup(table map[string]string, status, fallback string) string {
	if v, ok := table[status]; ok {
		return v
	}
	return fallback
}

func AttendanceBadge(status string) string { return lookup(attendanceBadges, status, "unknown") }
func AttendanceIcon(status string) string  { return lookup(attendanceIcons, status, "[?]") }
func LeaveBadge(status string) string      { return lookup(leaveBadges, status, "unknown") }
func LeaveIcon(status string) string       { return lookup(leaveIcons, status, "[?]") }
func PayrollBadge(status string) string    { return lookup(payrollBadges, status, "unknown") }
func PayrollIcon(status string) string     { return lookup(payrollIcons, status, "[?]") }
func SubmissionBadge(status string) string { return lookup(submissionBadges, status, "draft") }
func PaymentBadge(status string) string    { return lookup(paymentBadges, status, "pending") }

func CertificateBadge(status string) string {
	return lookup(certificateBadges, status, "draft")
}
