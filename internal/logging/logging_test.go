package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, dev := range []bool{false, true} {
		logger, err := New("debug", dev)
		if err != nil {
			t.Fatalf("New(debug, %v) error: %v", dev, err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("debug not enabled (development=%v)", dev)
		}
	}

	if _, err := New("chatty", false); err == nil {
		t.Error("expected error for unknown level")
	}
}
