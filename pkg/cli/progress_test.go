package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSimpleProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgressReporter(buf)

	p.Start(4)
	p.Update(2, "2026-01-02")
	if !strings.Contains(buf.String(), "50% (2/4 days) 2026-01-02") {
		t.Errorf("unexpected progress output: %q", buf.String())
	}

	p.Finish()
	if !strings.Contains(buf.String(), "100% (4/4 days)") {
		t.Errorf("Finish did not render completion: %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Finish should end the line")
	}
}

func TestSimpleProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgressReporter(buf)
	p.Start(0)
	p.Update(1, "x")
	if buf.Len() != 0 {
		t.Errorf("expected no output for zero total, got %q", buf.String())
	}
}

func TestSimpleProgress_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgressReporter(buf)
	p.Error(errors.New("boom"))
	if !strings.Contains(buf.String(), "Error: boom") {
		t.Errorf("unexpected error output: %q", buf.String())
	}
}
