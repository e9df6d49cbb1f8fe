package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerLevels(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name      string
		logger    Logger
		wantInfo  bool
		wantDebug bool
	}{
		{"quiet", Logger{}, false, false},
		{"verbose", Logger{Verbose: true}, true, false},
		{"debug", Logger{Debug: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := tt.logger
			l.Out = &out
			l.Err = &errOut

			l.Infof("added %d files", 3)
			l.Debugf("opening %s", "box.lbx")
			l.Warnf("careful")

			if got := strings.Contains(out.String(), "[info] added 3 files"); got != tt.wantInfo {
				t.Errorf("info shown = %v, want %v (output %q)", got, tt.wantInfo, out.String())
			}
			if got := strings.Contains(out.String(), "[debug] opening box.lbx"); got != tt.wantDebug {
				t.Errorf("debug shown = %v, want %v (output %q)", got, tt.wantDebug, out.String())
			}
			if !strings.Contains(errOut.String(), "[warn] careful") {
				t.Errorf("warnings must always be shown, got %q", errOut.String())
			}
		})
	}
}

func TestErrorfGoesToErr(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	l := Logger{Out: &out, Err: &errOut}

	l.Errorf("failed to commit %s", "box.lbx")
	if !strings.Contains(errOut.String(), "[error] failed to commit box.lbx") {
		t.Errorf("error not logged, got %q", errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("errors must not reach Out, got %q", out.String())
	}
}
