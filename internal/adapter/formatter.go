package adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/internal/util"
)

// Format names one rendering of a report.
type Format string

const (
	FormatPlainText Format = "plaintext"
	FormatMarkdown  Format = "markdown"
	FormatHTML      Format = "html"
)

// Formats lists every supported format in output order.
var Formats = []Format{FormatPlainText, FormatMarkdown, FormatHTML}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPlainText, FormatMarkdown, FormatHTML:
		return f, nil
	case "text", "plain", "txt":
		return FormatPlainText, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// ReportContext is everything a report is rendered from.
type ReportContext struct {
	SubjectHandle string
	CapturedAt    *time.Time
	TotalCount    int
	Joined        []*domain.Member
	Left          []*domain.Member
	Now           time.Time
}

// MemberView is a member prepared for display. Optional fields are blank
// when unset.
type MemberView struct {
	Label        string
	URL          string
	AvatarURL    string
	Bio          string
	Organization string
	Location     string
}

// ReportView holds the section decisions shared by all formats.
type ReportView struct {
	SubjectHandle    string
	FollowersPageURL string
	TotalCount       int
	TotalNoun        string

	Joined []MemberView
	Left   []MemberView

	ShowJoined   bool
	ShowNoJoined bool
	ShowLeft     bool

	ShowSince bool
	Since     string
	SinceISO  string
}

// NewReportView computes the section flags once for every format.
func NewReportView(ctx ReportContext) ReportView {
	view := ReportView{
		SubjectHandle:    ctx.SubjectHandle,
		FollowersPageURL: followersPageURL(ctx.SubjectHandle),
		TotalCount:       ctx.TotalCount,
		TotalNoun:        util.Pluralize(ctx.TotalCount, "follower"),
		Joined:           memberViews(ctx.Joined),
		Left:             memberViews(ctx.Left),
	}

	view.ShowJoined = len(view.Joined) > 0
	view.ShowNoJoined = len(view.Joined) == 0 && len(view.Left) > 0
	view.ShowLeft = len(view.Left) > 0

	if ctx.CapturedAt != nil && (view.ShowJoined || view.ShowLeft) {
		now := ctx.Now
		if now.IsZero() {
			now = time.Now()
		}
		view.ShowSince = true
		view.Since = util.TimeSince(*ctx.CapturedAt, now)
		view.SinceISO = util.FormatISO(*ctx.CapturedAt)
	}

	return view
}

// Render produces the report in the requested format.
func Render(format Format, ctx ReportContext) (string, error) {
	view := NewReportView(ctx)
	switch format {
	case FormatPlainText, FormatMarkdown:
		return executeTextTemplate(string(format), view)
	case FormatHTML:
		return executeHTMLTemplate(string(format), view)
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
}

// Reports bundles the three renderings of one run.
type Reports struct {
	PlainText string
	Markdown  string
	HTML      string
}

func RenderAll(ctx ReportContext) (*Reports, error) {
	var (
		out Reports
		err error
	)
	if out.PlainText, err = Render(FormatPlainText, ctx); err != nil {
		return nil, err
	}
	if out.Markdown, err = Render(FormatMarkdown, ctx); err != nil {
		return nil, err
	}
	if out.HTML, err = Render(FormatHTML, ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func followersPageURL(handle string) string {
	if handle == "" {
		return ""
	}
	return "https://github.com/" + handle + "?tab=followers"
}

func memberViews(members []*domain.Member) []MemberView {
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		views = append(views, MemberView{
			Label:        sanitizeText(m.Label()),
			URL:          m.ProfileURL,
			AvatarURL:    m.AvatarURL,
			Bio:          util.TruncateString(sanitizeText(util.Deref(m.Bio)), constants.StringLimits.Bio),
			Organization: sanitizeText(util.Deref(m.Organization)),
			Location:     util.TruncateString(sanitizeText(util.Deref(m.Location)), constants.StringLimits.Location),
		})
	}
	return views
}
