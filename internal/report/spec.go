// Package report computes which vendor reports to fetch for a given run.
// Publication follows the store clock, so all window math happens in JST
// regardless of where the job runs.
package report

import (
	"fmt"
	"time"
)

// JST is the vendor's publication timezone. A fixed zone avoids depending on
// the host tzdata.
var JST = time.FixedZone("JST", 9*60*60)

const (
	// KindDaily covers yesterday's scans, published every morning.
	KindDaily = "daily"

	// KindWeekly covers the Monday through Sunday week anchored on the most
	// recent Sunday, published after the weekly close.
	KindWeekly = "weekly"
)

const (
	dailyPathFormat  = "/POSReportDaily/report_Xebio_%s-%s.xlsx"
	weeklyPathFormat = "/POSReport/report_Xebio_%s-%s.xlsx"

	// Vendor paths spell dates out with dashes; our object keys compact them.
	remoteDate  = "2006-01-02"
	compactDate = "20060102"
)

// Spec names one report file: where it lives on the vendor endpoint, what to
// call it locally, and the date window it covers.
type Spec struct {
	Kind       string
	StartDate  time.Time
	EndDate    time.Time
	RemotePath string
	ObjectKey  string
}

// Schema returns the validation schema name for this report kind.
func (s Spec) Schema() string {
	return "scan_report_" + s.Kind
}

// BuildSpecs returns the daily and weekly specs current as of now. The daily
// window is yesterday in JST. The weekly window runs the Monday through
// Sunday week anchored on the most recent Sunday, today included.
func BuildSpecs(now time.Time) []Spec {
	jst := now.In(JST)
	today := time.Date(jst.Year(), jst.Month(), jst.Day(), 0, 0, 0, 0, JST)

	yesterday := today.AddDate(0, 0, -1)
	daily := Spec{
		Kind:      KindDaily,
		StartDate: yesterday,
		EndDate:   yesterday,
	}

	// Walk back to the most recent Sunday (today, if today is one), then six
	// more days to the Monday that opened that week.
	lastSunday := today.AddDate(0, 0, -int(today.Weekday()))
	weekly := Spec{
		Kind:      KindWeekly,
		StartDate: lastSunday.AddDate(0, 0, -6),
		EndDate:   lastSunday,
	}

	daily.RemotePath = fmt.Sprintf(dailyPathFormat,
		daily.StartDate.Format(remoteDate), daily.EndDate.Format(remoteDate))
	daily.ObjectKey = fmt.Sprintf("scan_report_daily_%s.csv", daily.EndDate.Format(compactDate))

	weekly.RemotePath = fmt.Sprintf(weeklyPathFormat,
		weekly.StartDate.Format(remoteDate), weekly.EndDate.Format(remoteDate))
	weekly.ObjectKey = fmt.Sprintf("scan_report_weekly_%s.csv", weekly.EndDate.Format(compactDate))

	return []Spec{daily, weekly}
}
