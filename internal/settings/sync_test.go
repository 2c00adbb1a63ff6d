package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"SignalDesk/internal/domain/models"
	applogger "SignalDesk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	published []models.AppSettings
	err       error
}

func (f *fakeBackend) PublishSettings(_ context.Context, s models.AppSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, s)
	return nil
}

func (f *fakeBackend) SubmitTrade(context.Context, models.TradeRequest) (models.TradeResult, error) {
	return models.TradeResult{}, nil
}
func (f *fakeBackend) PortfolioHistory(context.Context) ([]models.EquityPoint, error) {
	return nil, nil
}
func (f *fakeBackend) Watchlist(context.Context) ([]models.WatchlistEntry, error) { return nil, nil }
func (f *fakeBackend) WatchlistAdd(context.Context, string, string) error         { return nil }
func (f *fakeBackend) WatchlistRemove(context.Context, string) error              { return nil }
func (f *fakeBackend) Chat(context.Context, string) (string, error)               { return "", nil }

func newTestSync(t *testing.T, backend *fakeBackend) *Sync {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return NewSync(backend, l)
}

func TestSync_DefaultsBeforeAnySnapshot(t *testing.T) {
	s := newTestSync(t, &fakeBackend{})
	w := s.Working()

	assert.Equal(t, 70.0, w.Analysis.RSIOverbought)
	assert.Equal(t, 30.0, w.Analysis.RSIOversold)
	assert.Equal(t, 70.0, w.Analysis.MinConfidence)
	assert.Equal(t, "dark", w.UI.Theme)
	assert.False(t, w.UI.CompactMode)
	assert.True(t, w.Notifications.TelegramEnabled)
	assert.False(t, w.Notifications.BrowserPushEnabled)
}

func TestSync_PartialSnapshotKeepsDefaultsElsewhere(t *testing.T) {
	s := newTestSync(t, &fakeBackend{})

	require.NoError(t, s.Initialize(json.RawMessage(`{"ui":{"theme":"light"}}`)))

	w := s.Working()
	assert.Equal(t, "light", w.UI.Theme)
	assert.Equal(t, 70.0, w.Analysis.RSIOverbought, "leaf absent from snapshot keeps its default")
	assert.True(t, w.Notifications.TelegramEnabled)
}

func TestSync_MalformedSnapshotRejected(t *testing.T) {
	s := newTestSync(t, &fakeBackend{})
	err := s.Initialize(json.RawMessage(`{"analysis":`))
	require.Error(t, err)
	assert.Equal(t, "dark", s.Working().UI.Theme)
}

func TestSync_StagedEditShadowsLaterServerSnapshot(t *testing.T) {
	s := newTestSync(t, &fakeBackend{})

	require.NoError(t, s.Stage(PathTheme, "cyber"))
	require.True(t, s.Dirty())

	// a server push for the same leaf arrives before the user saves
	require.NoError(t, s.ApplyServer(json.RawMessage(`{"ui":{"theme":"light"},"analysis":{"rsi_overbought":75}}`)))

	w := s.Working()
	assert.Equal(t, "cyber", w.UI.Theme, "unpublished edit wins over the server snapshot")
	assert.Equal(t, 75.0, w.Analysis.RSIOverbought, "untouched leaf tracks the server")
}

func TestSync_StageRejectsUnknownPathAndWrongType(t *testing.T) {
	s := newTestSync(t, &fakeBackend{})

	var verr *models.ValidationError
	require.ErrorAs(t, s.Stage("analysis.unknown", 1), &verr)
	require.ErrorAs(t, s.Stage(PathRSIOverbought, "high"), &verr)
	require.ErrorAs(t, s.Stage(PathCompactMode, "yes"), &verr)
	assert.False(t, s.Dirty())
}

func TestSync_Revert(t *testing.T) {
	s := newTestSync(t, &fakeBackend{})
	require.NoError(t, s.ApplyServer(json.RawMessage(`{"ui":{"theme":"light"}}`)))
	require.NoError(t, s.Stage(PathTheme, "cyber"))
	require.NoError(t, s.Stage(PathCompactMode, true))
	assert.Equal(t, []string{PathCompactMode, PathTheme}, s.Touched())

	s.Revert()

	assert.False(t, s.Dirty())
	w := s.Working()
	assert.Equal(t, "light", w.UI.Theme, "revert falls back to server-over-defaults")
	assert.False(t, w.UI.CompactMode)
}

func TestSync_PublishSendsWholeObjectAndClearsStaged(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestSync(t, backend)

	require.NoError(t, s.Stage(PathMinConfidence, 80))
	require.NoError(t, s.Publish(context.Background()))

	require.Len(t, backend.published, 1)
	sent := backend.published[0]
	assert.Equal(t, 80.0, sent.Analysis.MinConfidence)
	assert.Equal(t, "dark", sent.UI.Theme, "publish always carries all groups")
	assert.False(t, s.Dirty())

	// the published object is the new baseline, so a server echo of it
	// does not flip anything back
	raw, err := json.Marshal(sent)
	require.NoError(t, err)
	require.NoError(t, s.ApplyServer(raw))
	assert.Equal(t, 80.0, s.Working().Analysis.MinConfidence)
}

func TestSync_PublishValidatesBeforeSending(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestSync(t, backend)

	// out of range for the gte=50,lte=90 rule; staging alone only checks type
	require.NoError(t, s.Stage(PathRSIOverbought, 95))

	err := s.Publish(context.Background())
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, backend.published)
	assert.True(t, s.Dirty(), "failed publish keeps the edits for retry")
}

func TestSync_PublishFailureRetainsWorkingCopy(t *testing.T) {
	backend := &fakeBackend{err: errors.New("backend down")}
	s := newTestSync(t, backend)

	require.NoError(t, s.Stage(PathTheme, "light"))
	err := s.Publish(context.Background())

	var execErr *models.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.True(t, s.Dirty())
	assert.Equal(t, "light", s.Working().UI.Theme)
}

func TestSync_StageObjectStagesOnlyDiffs(t *testing.T) {
	s := newTestSync(t, &fakeBackend{})

	obj := s.Working()
	obj.UI.Theme = "light"
	obj.Analysis.RSIOversold = 25

	require.NoError(t, s.StageObject(obj))
	assert.Equal(t, []string{PathRSIOversold, PathTheme}, s.Touched())
}
