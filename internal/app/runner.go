package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/actions"
	"github.com/Sorosliu1029/follower-change/internal/adapter"
	"github.com/Sorosliu1029/follower-change/internal/archive"
	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/internal/service/follower"
	"go.uber.org/zap"
)

// Restorer recovers the previous snapshot.
type Restorer interface {
	RestoreLatest(ctx context.Context, name string) *domain.RestoreResult
}

// Fetcher reads the current follower list.
type Fetcher interface {
	FetchAll(ctx context.Context, pageSize int) (*follower.Result, error)
}

// SnapshotWriter saves and uploads the current snapshot.
type SnapshotWriter interface {
	Persist(members []*domain.Member, capturedAt time.Time) (string, error)
	Upload(ctx context.Context, path string) (*archive.UploadResult, error)
}

// OutputSink receives the step outputs.
type OutputSink interface {
	Write(outputs []actions.Output) error
}

// Dispatcher delivers notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *adapter.Message) error
}

type RunnerConfig struct {
	ArchiveName        string
	PageSize           int
	IncludeUnfollowers bool
}

// Runner executes one follower-change run.
type Runner struct {
	cfg        RunnerConfig
	restorer   Restorer
	fetcher    Fetcher
	writer     SnapshotWriter
	outputs    OutputSink
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewRunner wires a runner. dispatcher may be nil.
func NewRunner(cfg RunnerConfig, restorer Restorer, fetcher Fetcher, writer SnapshotWriter, outputs OutputSink, dispatcher Dispatcher, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		restorer:   restorer,
		fetcher:    fetcher,
		writer:     writer,
		outputs:    outputs,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Run restores, fetches, persists, diffs, renders and emits outputs, in that
// order. Outputs are written only when every earlier step succeeded.
// Notification failures are returned after the outputs are written.
func (r *Runner) Run(ctx context.Context) (*domain.RunOutputs, error) {
	restored := r.restorer.RestoreLatest(ctx, r.cfg.ArchiveName)

	fetched, err := r.fetcher.FetchAll(ctx, r.cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch followers: %w", err)
	}

	capturedAt := r.now().UTC()
	path, err := r.writer.Persist(fetched.Members, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	if _, err := r.writer.Upload(ctx, path); err != nil {
		return nil, err
	}

	run := domain.RunContext{
		SubjectHandle:      fetched.Viewer,
		CapturedAt:         restored.CapturedAt,
		IsFirstRun:         restored.IsFirstRun,
		RestoreFailed:      restored.RestoreFailed,
		IncludeUnfollowers: r.cfg.IncludeUnfollowers,
	}

	delta := &domain.MembershipDelta{
		Joined:     []*domain.Member{},
		Left:       []*domain.Member{},
		TotalCount: fetched.TotalCount,
	}
	if restored.HasBaseline() {
		delta = domain.Diff(restored.Members, fetched.Members)
		delta.TotalCount = fetched.TotalCount
	}

	changed, shouldNotify := domain.DecideNotification(run, delta)
	r.logger.Info("Follower change computed",
		zap.Bool("first_run", run.IsFirstRun),
		zap.Bool("restore_failed", run.RestoreFailed),
		zap.Int("new_followers", len(delta.Joined)),
		zap.Int("unfollowers", len(delta.Left)),
		zap.Int("total_count", delta.TotalCount),
		zap.Bool("changed", changed),
		zap.Bool("should_notify", shouldNotify),
	)

	reportCtx := adapter.ReportContext{
		SubjectHandle: run.SubjectHandle,
		CapturedAt:    run.CapturedAt,
		TotalCount:    delta.TotalCount,
		Joined:        delta.Joined,
		Now:           capturedAt,
	}
	if run.IncludeUnfollowers {
		reportCtx.Left = delta.Left
	}

	reports, err := adapter.RenderAll(reportCtx)
	if err != nil {
		return nil, fmt.Errorf("render reports: %w", err)
	}

	out := &domain.RunOutputs{
		Changed:          changed,
		ShouldNotify:     shouldNotify,
		IsFirstRun:       run.IsFirstRun,
		RestoreFailed:    run.RestoreFailed,
		TotalCount:       delta.TotalCount,
		NewFollowerCount: len(delta.Joined),
		UnfollowerCount:  len(delta.Left),
		PlainText:        reports.PlainText,
		Markdown:         reports.Markdown,
		HTML:             reports.HTML,
	}

	if err := r.outputs.Write(actions.RunOutputs(out)); err != nil {
		return nil, fmt.Errorf("write outputs: %w", err)
	}

	if shouldNotify && r.dispatcher != nil {
		if err := r.dispatcher.Dispatch(ctx, adapter.NewMessage(reportCtx, reports)); err != nil {
			return out, fmt.Errorf("notify: %w", err)
		}
	}
	return out, nil
}
