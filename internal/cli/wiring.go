package cli

import (
	"time"

	"crocodile-service/internal/app"
	"crocodile-service/internal/config"
)

// roundConfig maps the YAML round and violation sections onto engine defaults.
func roundConfig(cfg config.Config) app.RoundConfig {
	rc := app.DefaultRoundConfig()
	rc.Duration = config.TTLDuration(cfg.Round.Duration, rc.Duration)
	rc.WarningLead = config.TTLDuration(cfg.Round.Warning, rc.WarningLead)
	if cfg.Round.AttemptCeiling > 0 {
		rc.AttemptCeiling = cfg.Round.AttemptCeiling
	}
	if t := cfg.Violations.SimilarityThreshold; t > 0 && t <= 1 {
		rc.SimilarityThreshold = t
	}
	if cfg.Violations.BanTrigger > 0 {
		rc.BanTrigger = cfg.Violations.BanTrigger
	}
	if cfg.Violations.BanRounds > 0 {
		rc.BanRounds = cfg.Violations.BanRounds
	}
	if rc.WarningLead >= rc.Duration {
		rc.WarningLead = rc.Duration / 6
	}
	return rc
}

func scoringConfig(cfg config.Config) app.Scoring {
	sc := app.DefaultScoring()
	if cfg.Scoring.LevelScale > 0 {
		sc.LevelScale = cfg.Scoring.LevelScale
	}
	return sc
}

func resetConfig(cfg config.Config) app.ResetConfig {
	rc := app.DefaultResetConfig()
	rc.Window = config.TTLDuration(cfg.Reset.Window, rc.Window)
	if len(cfg.Reset.Request) > 0 {
		rc.Request = cfg.Reset.Request
	}
	if len(cfg.Reset.Confirm) > 0 {
		rc.Confirm = cfg.Reset.Confirm
	}
	if len(cfg.Reset.Cancel) > 0 {
		rc.Cancel = cfg.Reset.Cancel
	}
	return rc
}

func wordsTTL(cfg config.Config) time.Duration {
	return config.TTLDuration(cfg.Words.TTL, time.Hour)
}
