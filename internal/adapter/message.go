package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Sorosliu1029/follower-change/internal/util"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// Message is a rendered notification ready for delivery.
type Message struct {
	Subject          string
	SubjectHandle    string
	NewFollowerCount int
	UnfollowerCount  int
	TotalCount       int
	Reports
}

// NewMessage bundles the rendered reports with a subject line.
func NewMessage(ctx ReportContext, reports *Reports) *Message {
	msg := &Message{
		Subject:          FormatSubject(len(ctx.Joined), len(ctx.Left)),
		SubjectHandle:    ctx.SubjectHandle,
		NewFollowerCount: len(ctx.Joined),
		UnfollowerCount:  len(ctx.Left),
		TotalCount:       ctx.TotalCount,
	}
	if reports != nil {
		msg.Reports = *reports
	}
	return msg
}

// FormatSubject summarises a delta in one line.
func FormatSubject(joined, left int) string {
	var parts []string
	if joined > 0 || left == 0 {
		parts = append(parts, fmt.Sprintf("You've got %s", util.CountNoun(joined, "new follower")))
	}
	if left > 0 {
		parts = append(parts, fmt.Sprintf("%s unfollowed you", util.CountNoun(left, "user")))
	}
	return strings.Join(parts, ", ")
}

// sanitizeText drops control characters and folds line breaks so one member
// stays on one line.
func sanitizeText(input string) string {
	if input == "" {
		return ""
	}
	cleaned := controlCharsPattern.ReplaceAllString(input, "")
	return strings.Join(strings.Fields(cleaned), " ")
}
