package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		env  string
		want zap.AtomicLevel
	}{
		{"prod", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"test", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"dev", zap.NewAtomicLevelAt(zap.DebugLevel)},
	}
	for _, tt := range tests {
		l, err := New(tt.env)
		if err != nil {
			t.Fatalf("%s: %v", tt.env, err)
		}
		if !l.Core().Enabled(tt.want.Level()) {
			t.Errorf("%s: level %s not enabled", tt.env, tt.want.Level())
		}
		if l.Core().Enabled(tt.want.Level() - 1) {
			t.Errorf("%s: level below %s enabled", tt.env, tt.want.Level())
		}
	}
}
