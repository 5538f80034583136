package internal

import (
	"github.com/maisondudroit/entretien"
	"go.uber.org/zap"
)

// NewLogger builds the process logger: JSON production output by default,
// human-readable console output when cfg.Format is "console".
func NewLogger(cfg entretien.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
