// Package settings stages and publishes configuration. Resolution is an
// explicit three-layer precedence chain: hard defaults, then the latest
// server snapshot, then unpublished local edits. A slow snapshot can
// therefore never clobber a leaf the user touched since the last
// publish, while untouched leaves always track the server.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// Leaf paths accepted by Stage.
const (
	PathRSIOverbought = "analysis.rsi_overbought"
	PathRSIOversold   = "analysis.rsi_oversold"
	PathMinConfidence = "analysis.min_confidence"
	PathTheme         = "ui.theme"
	PathCompactMode   = "ui.compact_mode"
	PathTelegram      = "notifications.telegram_enabled"
	PathBrowserPush   = "notifications.browser_push_enabled"
)

// Sync owns the settings working copy.
type Sync struct {
	backend  drepo.Backend
	log      *applogger.Logger
	validate *validator.Validate

	mu        sync.Mutex
	serverRaw json.RawMessage        // latest server snapshot, verbatim
	staged    map[string]interface{} // touched leaf -> value, unpublished
	working   models.AppSettings     // resolved view of the three layers
}

// NewSync creates a settings component seeded with hard defaults, which
// keeps every field defined before the first snapshot arrives.
func NewSync(backend drepo.Backend, log *applogger.Logger) *Sync {
	return &Sync{
		backend:  backend,
		log:      log,
		validate: validator.New(),
		staged:   make(map[string]interface{}),
		working:  models.DefaultAppSettings(),
	}
}

// Initialize applies a server settings payload. The raw form matters:
// leaves the server omitted keep their default (deep merge via JSON
// decode into a defaulted struct), so a partial payload never leaves a
// field undefined.
func (s *Sync) Initialize(raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(raw) > 0 {
		var probe models.AppSettings
		if err := json.Unmarshal(raw, &probe); err != nil {
			return fmt.Errorf("settings payload: %w", err)
		}
		s.serverRaw = raw
	}
	return s.resolveLocked()
}

// ApplyServer reconciles a later settings snapshot. Staged edits shadow
// the same leaf until published or reverted; everything else takes the
// server value.
func (s *Sync) ApplyServer(raw json.RawMessage) error {
	return s.Initialize(raw)
}

// Stage updates one leaf of the working copy locally, without
// contacting the backend. Unknown paths and mistyped values are
// ValidationErrors.
func (s *Sync) Stage(path string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	probe := s.working
	if err := setLeaf(&probe, path, value); err != nil {
		return err
	}
	s.staged[path] = value
	return s.resolveLocked()
}

// StageObject stages every leaf of s that differs from the current
// working copy. Used by callers that edit the whole object at once.
func (s *Sync) StageObject(obj models.AppSettings) error {
	cur := s.Working()
	for _, leaf := range []struct {
		path string
		cur  interface{}
		new  interface{}
	}{
		{PathRSIOverbought, cur.Analysis.RSIOverbought, obj.Analysis.RSIOverbought},
		{PathRSIOversold, cur.Analysis.RSIOversold, obj.Analysis.RSIOversold},
		{PathMinConfidence, cur.Analysis.MinConfidence, obj.Analysis.MinConfidence},
		{PathTheme, cur.UI.Theme, obj.UI.Theme},
		{PathCompactMode, cur.UI.CompactMode, obj.UI.CompactMode},
		{PathTelegram, cur.Notifications.TelegramEnabled, obj.Notifications.TelegramEnabled},
		{PathBrowserPush, cur.Notifications.BrowserPushEnabled, obj.Notifications.BrowserPushEnabled},
	} {
		if leaf.cur == leaf.new {
			continue
		}
		if err := s.Stage(leaf.path, leaf.new); err != nil {
			return err
		}
	}
	return nil
}

// Working returns the resolved working copy.
func (s *Sync) Working() models.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working
}

// Dirty reports whether unpublished edits exist.
func (s *Sync) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged) > 0
}

// Touched lists the staged leaf paths, sorted.
func (s *Sync) Touched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.staged))
	for p := range s.staged {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Revert drops all staged edits, falling back to server-over-defaults.
func (s *Sync) Revert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = make(map[string]interface{})
	_ = s.resolveLocked()
}

// Publish validates and sends the complete working copy, all three
// groups, never a diff. On success it becomes the new baseline; on
// failure the working copy is retained unchanged so the user can retry
// without losing edits.
func (s *Sync) Publish(ctx context.Context) error {
	s.mu.Lock()
	working := s.working
	s.mu.Unlock()

	if err := s.validate.Struct(&working); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &models.ValidationError{Field: fe.Namespace(), Message: "failed " + fe.Tag() + " " + fe.Param()}
		}
		return &models.ValidationError{Message: err.Error()}
	}

	if err := s.backend.PublishSettings(ctx, working); err != nil {
		s.log.Warn("settings publish failed", applogger.Error(err))
		var execErr *models.ExecutionError
		if errors.As(err, &execErr) {
			return execErr
		}
		return models.NewExecutionError("", err)
	}

	baseline, err := json.Marshal(working)
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}

	s.mu.Lock()
	s.serverRaw = baseline
	s.staged = make(map[string]interface{})
	err = s.resolveLocked()
	s.mu.Unlock()

	s.log.Info("settings published")
	return err
}

// resolveLocked rebuilds working = defaults < serverRaw < staged.
func (s *Sync) resolveLocked() error {
	resolved := models.DefaultAppSettings()
	if len(s.serverRaw) > 0 {
		if err := json.Unmarshal(s.serverRaw, &resolved); err != nil {
			return fmt.Errorf("settings payload: %w", err)
		}
	}
	for path, value := range s.staged {
		if err := setLeaf(&resolved, path, value); err != nil {
			return err
		}
	}
	s.working = resolved
	return nil
}

func setLeaf(s *models.AppSettings, path string, value interface{}) error {
	switch path {
	case PathRSIOverbought:
		return setFloat(&s.Analysis.RSIOverbought, path, value)
	case PathRSIOversold:
		return setFloat(&s.Analysis.RSIOversold, path, value)
	case PathMinConfidence:
		return setFloat(&s.Analysis.MinConfidence, path, value)
	case PathTheme:
		str, ok := value.(string)
		if !ok {
			return &models.ValidationError{Field: path, Message: "expects a string"}
		}
		s.UI.Theme = str
		return nil
	case PathCompactMode:
		return setBool(&s.UI.CompactMode, path, value)
	case PathTelegram:
		return setBool(&s.Notifications.TelegramEnabled, path, value)
	case PathBrowserPush:
		return setBool(&s.Notifications.BrowserPushEnabled, path, value)
	default:
		return &models.ValidationError{Field: path, Message: "unknown settings path"}
	}
}

func setFloat(dst *float64, path string, value interface{}) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case int:
		*dst = float64(v)
	default:
		return &models.ValidationError{Field: path, Message: "expects a number"}
	}
	return nil
}

func setBool(dst *bool, path string, value interface{}) error {
	b, ok := value.(bool)
	if !ok {
		return &models.ValidationError{Field: path, Message: "expects a boolean"}
	}
	*dst = b
	return nil
}
