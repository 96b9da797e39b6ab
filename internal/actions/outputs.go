// Package actions speaks the GitHub Actions workflow command protocol.
package actions

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Output is one named step output.
type Output struct {
	Name  string
	Value string
}

// OutputWriter appends outputs to the $GITHUB_OUTPUT file, or prints them to
// the console writer when no file is configured.
type OutputWriter struct {
	path      string
	console   io.Writer
	logger    *zap.Logger
	delimiter func() string
}

func NewOutputWriter(path string, console io.Writer, logger *zap.Logger) *OutputWriter {
	if console == nil {
		console = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutputWriter{
		path:      path,
		console:   console,
		logger:    logger,
		delimiter: func() string { return "ghadelimiter_" + uuid.NewString() },
	}
}

// Mask asks the runner to hide the secret in all later log lines.
func (w *OutputWriter) Mask(secret util.Secret) {
	if secret.IsEmpty() {
		return
	}
	for _, line := range strings.Split(secret.Reveal(), "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintf(w.console, "::add-mask::%s\n", line)
	}
}

// Write emits every output. Values may span lines.
func (w *OutputWriter) Write(outputs []Output) error {
	if w.path == "" {
		return w.printSummary(outputs)
	}

	var sb strings.Builder
	for _, o := range outputs {
		block, err := w.heredoc(o)
		if err != nil {
			return err
		}
		sb.WriteString(block)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	w.logger.Debug("Step outputs written", zap.Int("count", len(outputs)), zap.String("path", w.path))
	return nil
}

func (w *OutputWriter) heredoc(o Output) (string, error) {
	delim := w.delimiter()
	if strings.Contains(o.Name, delim) || strings.Contains(o.Value, delim) {
		return "", fmt.Errorf("output %s contains its delimiter", o.Name)
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", o.Name, delim, o.Value, delim), nil
}

func (w *OutputWriter) printSummary(outputs []Output) error {
	for _, o := range outputs {
		if strings.Contains(o.Value, "\n") {
			if _, err := fmt.Fprintf(w.console, "%s:\n%s\n\n", o.Name, o.Value); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w.console, "%s: %s\n", o.Name, o.Value); err != nil {
			return err
		}
	}
	return nil
}

// RunOutputs lists the outputs of a run in a stable order.
func RunOutputs(out *domain.RunOutputs) []Output {
	return []Output{
		{Name: "changed", Value: strconv.FormatBool(out.Changed)},
		{Name: "shouldNotify", Value: strconv.FormatBool(out.ShouldNotify)},
		{Name: "isFirstRun", Value: strconv.FormatBool(out.IsFirstRun)},
		{Name: "restoreFailed", Value: strconv.FormatBool(out.RestoreFailed)},
		{Name: "totalCount", Value: strconv.Itoa(out.TotalCount)},
		{Name: "newFollowerCount", Value: strconv.Itoa(out.NewFollowerCount)},
		{Name: "unfollowerCount", Value: strconv.Itoa(out.UnfollowerCount)},
		{Name: "plainText", Value: out.PlainText},
		{Name: "markdown", Value: out.Markdown},
		{Name: "html", Value: out.HTML},
	}
}
