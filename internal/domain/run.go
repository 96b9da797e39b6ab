package domain

import "time"

// RunContext carries the per-run facts the report and notification decisions need.
type RunContext struct {
	SubjectHandle      string
	CapturedAt         *time.Time
	IsFirstRun         bool
	RestoreFailed      bool
	IncludeUnfollowers bool
}

// RunOutputs are the values handed back to the calling workflow.
type RunOutputs struct {
	Changed          bool
	ShouldNotify     bool
	IsFirstRun       bool
	RestoreFailed    bool
	TotalCount       int
	NewFollowerCount int
	UnfollowerCount  int
	PlainText        string
	Markdown         string
	HTML             string
}

// DecideNotification computes the changed and should-notify flags.
//
// Changed looks at both directions regardless of the unfollower switch.
// Notification requires a usable baseline, so first runs and failed restores
// never notify.
func DecideNotification(run RunContext, delta *MembershipDelta) (changed, shouldNotify bool) {
	if run.IsFirstRun || run.RestoreFailed || delta == nil {
		return false, false
	}
	changed = delta.Changed()
	shouldNotify = len(delta.Joined) > 0 || (run.IncludeUnfollowers && len(delta.Left) > 0)
	return changed, shouldNotify
}
