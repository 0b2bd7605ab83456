package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinner_Animated(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Loading", true)
	s.interval = 5 * time.Millisecond

	s.Start()
	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Success("Done")
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Loading") {
		t.Error("expected message in output")
	}
	if !strings.HasSuffix(out, "\r\033[K✓ Done\n") {
		t.Errorf("expected cleared line and success message, got %q", out)
	}
}

func TestSpinner_Static(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Loading", false)
	s.Start()
	s.Fail("Failed")

	if buf.String() != "Loading...\n✗ Failed\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "x", true)
	s.Stop()
	s.Start()
	if strings.Contains(buf.String(), "x") {
		t.Errorf("spinner must not start after Stop: %q", buf.String())
	}
}
