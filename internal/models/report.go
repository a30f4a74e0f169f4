package models

import (
	"fmt"
	"strings"
	"time"
)

// beijingZone is the display timezone for report timestamps. The rendered
// time must be Beijing time regardless of where the process runs.
var beijingZone = loadBeijingZone()

func loadBeijingZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// Hosts without tzdata still get UTC+8.
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// RunReport is the aggregated summary of one full batch run. It is
// assembled once by the batch runner and never mutated afterwards.
type RunReport struct {
	RunID     string
	StartedAt time.Time
	Lines     []string
	Total     int
	Succeeded int
}

// Failed returns the number of accounts whose login attempt failed.
func (r *RunReport) Failed() int {
	return r.Total - r.Succeeded
}

// Render produces the notification text for the report: a header with the
// Beijing timestamp and totals, one block per account in processing order,
// and a completion marker.
func (r *RunReport) Render() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓️ Beijing time: %s\n", r.StartedAt.In(beijingZone).Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("📊 Accounts: %d | Success: %d | Failed: %d\n\n", r.Total, r.Succeeded, r.Failed()))
	b.WriteString(strings.Join(r.Lines, "\n\n"))
	b.WriteString("\n\n✅ Job finished")
	return b.String()
}
