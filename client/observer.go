package client

import "time"

// Observer receives gateway telemetry. internal/metrics provides the
// Prometheus implementation.
type Observer interface {
	ObserveRequest(method string, status int, duration time.Duration)
	RecordRefresh(success bool, duration time.Duration)
	RecordReplay()
	SetWaiting(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int, time.Duration) {}
func (nopObserver) RecordRefresh(bool, time.Duration)         {}
func (nopObserver) RecordReplay()                             {}
func (nopObserver) SetWaiting(int)                            {}
