package models

import "time"

// LaunchRecord is one game session in the launch history.
type LaunchRecord struct {
	ID        int64
	Version   string
	Loader    LoaderType
	Username  string
	StartedAt time.Time
	EndedAt   time.Time
	ExitCode  int
	Error     string
}

// Duration is zero for sessions that have not finished.
func (r LaunchRecord) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
