package logging

import "testing"

func TestLoggerUsableBeforeInit(t *testing.T) {
	// Packages log from mainline paths; the singleton must work even when
	// the process (or a test binary) never called Init.
	if Logger == nil {
		t.Fatal("Logger is nil before Init")
	}
	Logger.Debug("pre-init logging must not panic")
}
