package tray

import "testing"

func TestNilTrayIsNoop(t *testing.T) {
	var tr *Tray
	tr.SetStatus("Thinking...")
	tr.SetPort(49600)
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel("Idle"); got != "Status: Idle" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestIconIsSVG(t *testing.T) {
	if Icon.Name() != "offlinemind.svg" || len(Icon.Content()) == 0 {
		t.Fatalf("unexpected icon resource %q", Icon.Name())
	}
}
