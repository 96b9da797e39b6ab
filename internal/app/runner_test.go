package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/actions"
	"github.com/Sorosliu1029/follower-change/internal/adapter"
	"github.com/Sorosliu1029/follower-change/internal/archive"
	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/internal/service/follower"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	calls []string
}

func (r *recorder) record(name string) { r.calls = append(r.calls, name) }

type fakeRestorer struct {
	rec    *recorder
	result *domain.RestoreResult
}

func (f *fakeRestorer) RestoreLatest(context.Context, string) *domain.RestoreResult {
	f.rec.record("restore")
	return f.result
}

type fakeFetcher struct {
	rec    *recorder
	result *follower.Result
	err    error
}

func (f *fakeFetcher) FetchAll(context.Context, int) (*follower.Result, error) {
	f.rec.record("fetch")
	return f.result, f.err
}

type fakeWriter struct {
	rec       *recorder
	persisted []*domain.Member
	uploadErr error
}

func (f *fakeWriter) Persist(members []*domain.Member, _ time.Time) (string, error) {
	f.rec.record("persist")
	f.persisted = members
	return "/tmp/followers.json", nil
}

func (f *fakeWriter) Upload(context.Context, string) (*archive.UploadResult, error) {
	f.rec.record("upload")
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &archive.UploadResult{ArchiveName: "my-followers", ID: 1}, nil
}

type fakeSink struct {
	rec     *recorder
	outputs map[string]string
}

func (f *fakeSink) Write(outputs []actions.Output) error {
	f.rec.record("outputs")
	f.outputs = map[string]string{}
	for _, o := range outputs {
		f.outputs[o.Name] = o.Value
	}
	return nil
}

type fakeDispatcher struct {
	rec      *recorder
	messages []*adapter.Message
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, msg *adapter.Message) error {
	f.rec.record("notify")
	f.messages = append(f.messages, msg)
	return f.err
}

func m(id int64) *domain.Member {
	handle := "user" + string(rune('a'+id))
	return &domain.Member{ID: id, Handle: handle, ProfileURL: "https://github.com/" + handle}
}

func members(ids ...int64) []*domain.Member {
	out := make([]*domain.Member, 0, len(ids))
	for _, id := range ids {
		out = append(out, m(id))
	}
	return out
}

type harness struct {
	rec        *recorder
	restorer   *fakeRestorer
	fetcher    *fakeFetcher
	writer     *fakeWriter
	sink       *fakeSink
	dispatcher *fakeDispatcher
	runner     *Runner
}

var (
	runNow      = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	previousRun = runNow.Add(-3 * time.Hour)
)

func newHarness(restored *domain.RestoreResult, current []*domain.Member, include bool) *harness {
	rec := &recorder{}
	h := &harness{
		rec:        rec,
		restorer:   &fakeRestorer{rec: rec, result: restored},
		fetcher:    &fakeFetcher{rec: rec, result: &follower.Result{Viewer: "octo", Members: current, TotalCount: len(current)}},
		writer:     &fakeWriter{rec: rec},
		sink:       &fakeSink{rec: rec},
		dispatcher: &fakeDispatcher{rec: rec},
	}
	h.runner = NewRunner(RunnerConfig{
		ArchiveName:        "my-followers",
		PageSize:           100,
		IncludeUnfollowers: include,
	}, h.restorer, h.fetcher, h.writer, h.sink, h.dispatcher, zap.NewNop())
	h.runner.now = func() time.Time { return runNow }
	return h
}

func baseline(ids ...int64) *domain.RestoreResult {
	return &domain.RestoreResult{CapturedAt: &previousRun, Members: members(ids...), ArchiveID: 5}
}

func TestRunWithChanges(t *testing.T) {
	h := newHarness(baseline(1, 2, 3), members(2, 3, 4), false)

	out, err := h.runner.Run(t.Context())
	require.NoError(t, err)
	require.Equal(t, []string{"restore", "fetch", "persist", "upload", "outputs", "notify"}, h.rec.calls)

	require.True(t, out.Changed)
	require.True(t, out.ShouldNotify)
	require.Equal(t, 1, out.NewFollowerCount)
	require.Equal(t, 1, out.UnfollowerCount)
	require.Equal(t, 3, out.TotalCount)
	require.Contains(t, out.PlainText, "- usere (https://github.com/usere)")
	require.NotContains(t, out.PlainText, "Unfollowers")
	require.Contains(t, out.PlainText, "Changes in last 3 hours")

	require.Equal(t, "true", h.sink.outputs["shouldNotify"])
	require.Equal(t, out.Markdown, h.sink.outputs["markdown"])
	require.Len(t, h.dispatcher.messages, 1)
	require.Equal(t, "You've got 1 new follower", h.dispatcher.messages[0].Subject)
	require.Len(t, h.writer.persisted, 3)
}

func TestRunIncludesUnfollowersWhenEnabled(t *testing.T) {
	h := newHarness(baseline(1, 2), members(2), true)

	out, err := h.runner.Run(t.Context())
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.True(t, out.ShouldNotify)
	require.Contains(t, out.PlainText, "No new followers")
	require.Contains(t, out.PlainText, "Unfollowers:\n- userb")
	require.Equal(t, "1 user unfollowed you", h.dispatcher.messages[0].Subject)
}

func TestRunUnfollowOnlyWithoutOptIn(t *testing.T) {
	h := newHarness(baseline(1, 2), members(2), false)

	out, err := h.runner.Run(t.Context())
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.False(t, out.ShouldNotify)
	require.Equal(t, 1, out.UnfollowerCount)
	require.Equal(t, "You have 1 follower now. Go to followers page: https://github.com/octo?tab=followers", out.PlainText)
	require.Empty(t, h.dispatcher.messages)
}

func TestRunFirstRun(t *testing.T) {
	h := newHarness(&domain.RestoreResult{IsFirstRun: true, Members: []*domain.Member{}}, members(1, 2), true)

	out, err := h.runner.Run(t.Context())
	require.NoError(t, err)
	require.Equal(t, []string{"restore", "fetch", "persist", "upload", "outputs"}, h.rec.calls)
	require.True(t, out.IsFirstRun)
	require.False(t, out.RestoreFailed)
	require.False(t, out.Changed)
	require.False(t, out.ShouldNotify)
	require.Zero(t, out.NewFollowerCount)
	require.NotContains(t, out.PlainText, "New followers")
	require.Equal(t, "true", h.sink.outputs["isFirstRun"])
}

func TestRunRestoreFailed(t *testing.T) {
	h := newHarness(&domain.RestoreResult{RestoreFailed: true, Members: []*domain.Member{}}, members(1, 2), true)

	out, err := h.runner.Run(t.Context())
	require.NoError(t, err)
	require.False(t, out.IsFirstRun)
	require.True(t, out.RestoreFailed)
	require.False(t, out.Changed)
	require.False(t, out.ShouldNotify)
	require.Zero(t, out.NewFollowerCount)
	require.Equal(t, "true", h.sink.outputs["restoreFailed"])
}

func TestRunTotalCountDivergence(t *testing.T) {
	h := newHarness(baseline(1), members(1, 2), false)
	h.fetcher.result.TotalCount = 500

	out, err := h.runner.Run(t.Context())
	require.NoError(t, err)
	require.Equal(t, 500, out.TotalCount)
	require.Equal(t, 1, out.NewFollowerCount)
	require.True(t, strings.HasPrefix(out.PlainText, "You have 500 followers now."))
}

func TestRunFetchFailure(t *testing.T) {
	h := newHarness(baseline(1), nil, false)
	h.fetcher.err = errors.New("401 Bad credentials")

	_, err := h.runner.Run(t.Context())
	require.ErrorContains(t, err, "401")
	require.Equal(t, []string{"restore", "fetch"}, h.rec.calls)
	require.Nil(t, h.sink.outputs)
}

func TestRunUploadFailure(t *testing.T) {
	h := newHarness(baseline(1), members(1), false)
	h.writer.uploadErr = errors.New("quota exceeded")

	_, err := h.runner.Run(t.Context())
	require.ErrorContains(t, err, "quota exceeded")
	require.Equal(t, []string{"restore", "fetch", "persist", "upload"}, h.rec.calls)
	require.Nil(t, h.sink.outputs)
}

func TestRunNotificationFailureKeepsOutputs(t *testing.T) {
	h := newHarness(baseline(1), members(1, 2), false)
	h.dispatcher.err = errors.New("smtp down")

	out, err := h.runner.Run(t.Context())
	require.ErrorContains(t, err, "smtp down")
	require.NotNil(t, out)
	require.Equal(t, "true", h.sink.outputs["changed"])
}

func TestRunWithoutDispatcher(t *testing.T) {
	h := newHarness(baseline(1), members(1, 2), false)
	h.runner.dispatcher = nil

	out, err := h.runner.Run(t.Context())
	require.NoError(t, err)
	require.True(t, out.ShouldNotify)
}
