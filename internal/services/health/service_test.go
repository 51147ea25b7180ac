package health

import "testing"

func TestStatusReportsSessions(t *testing.T) {
	n := 3
	svc := NewService(func() int { return n })

	st := svc.Status()
	if !st.OK {
		t.Fatalf("expected ok")
	}
	if st.Sessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", st.Sessions)
	}
	if st.UptimeSeconds < 0 {
		t.Fatalf("negative uptime: %d", st.UptimeSeconds)
	}
}

func TestStatusWithoutCounter(t *testing.T) {
	if got := NewService(nil).Status(); !got.OK || got.Sessions != 0 {
		t.Fatalf("unexpected status: %+v", got)
	}
}
