package health

import "time"

// Service encapsulates health-related checks.
type Service struct {
	started  time.Time
	sessions func() int
}

// Status is the /healthz payload.
type Status struct {
	OK            bool  `json:"ok"`
	Sessions      int   `json:"sessions"`
	UptimeSeconds int64 `json:"uptimeSeconds"`
}

// NewService constructs a new health service. sessions may be nil.
func NewService(sessions func() int) *Service {
	return &Service{started: time.Now(), sessions: sessions}
}

// Status returns a simple health payload.
func (s *Service) Status() Status {
	st := Status{OK: true, UptimeSeconds: int64(time.Since(s.started) / time.Second)}
	if s.sessions != nil {
		st.Sessions = s.sessions()
	}
	return st
}
