package models

import (
	"fmt"

	"github.com/creasty/defaults"
)

// AnalysisSettings configures the backend's signal thresholds.
type AnalysisSettings struct {
	RSIOverbought float64 `json:"rsi_overbought" yaml:"rsi_overbought" default:"70" validate:"gte=50,lte=90"`
	RSIOversold   float64 `json:"rsi_oversold" yaml:"rsi_oversold" default:"30" validate:"gte=10,lte=50"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence" default:"70" validate:"gte=1,lte=100"`
}

// UISettings configures the presentation layer.
type UISettings struct {
	Theme       string `json:"theme" yaml:"theme" default:"dark" validate:"oneof=dark light cyber"`
	CompactMode bool   `json:"compact_mode" yaml:"compact_mode"`
}

// NotificationSettings toggles backend-owned delivery channels.
type NotificationSettings struct {
	TelegramEnabled    bool `json:"telegram_enabled" yaml:"telegram_enabled" default:"true"`
	BrowserPushEnabled bool `json:"browser_push_enabled" yaml:"browser_push_enabled"`
}

// AppSettings is the process-wide configuration snapshot. It is
// initialized from a server snapshot over hard defaults, mutated only by
// explicit save, and published wholesale (never as a diff).
type AppSettings struct {
	Analysis      AnalysisSettings     `json:"analysis" yaml:"analysis"`
	UI            UISettings           `json:"ui" yaml:"ui"`
	Notifications NotificationSettings `json:"notifications" yaml:"notifications"`
}

// DefaultAppSettings returns the hard-default layer of the settings
// precedence chain (defaults < server snapshot < staged local edits).
func DefaultAppSettings() AppSettings {
	var s AppSettings
	if err := defaults.Set(&s); err != nil {
		// default tags are static literals; a failure here is a programming error
		panic(fmt.Sprintf("settings defaults: %v", err))
	}
	return s
}
