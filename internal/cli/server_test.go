package cli

import (
	"testing"
	"time"

	"trivia-showdown/internal/config"
)

func TestServiceOptionsFromConfig(t *testing.T) {
	var cfg config.Config
	off := false
	cfg.Match.DefaultCode = "UTICA"
	cfg.Match.SpeedMax = 80
	cfg.Match.ShuffleAnswers = &off
	cfg.Tx.MaxAttempts = 3
	cfg.Tx.InitialBackoff = "2ms"

	opts := serviceOptions(cfg)
	if opts.DefaultCode != "UTICA" || opts.DefaultPin != "000000" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if opts.Scoring.Base != 100 || opts.Scoring.SpeedMax != 80 || opts.Scoring.First != 100 {
		t.Fatalf("unexpected scoring: %+v", opts.Scoring)
	}
	if opts.ShuffleAnswers || !opts.ShuffleQuestions {
		t.Fatalf("unexpected shuffle flags: %+v", opts)
	}
	if opts.MaxAttempts != 3 || opts.InitialBackoff != 2*time.Millisecond || opts.MaxBackoff != 100*time.Millisecond {
		t.Fatalf("unexpected tx options: %+v", opts)
	}
}
