package runner

import "sync/atomic"

// Stats tracks probe outcomes. Safe for concurrent use.
type Stats struct {
	Started   int64
	Succeeded int64
	Failed    int64
	TimedOut  int64
	Canceled  int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Started   int64 `json:"started"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	TimedOut  int64 `json:"timed_out"`
	Canceled  int64 `json:"canceled"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Started:   atomic.LoadInt64(&s.Started),
		Succeeded: atomic.LoadInt64(&s.Succeeded),
		Failed:    atomic.LoadInt64(&s.Failed),
		TimedOut:  atomic.LoadInt64(&s.TimedOut),
		Canceled:  atomic.LoadInt64(&s.Canceled),
	}
}

// Finished returns the number of probes that have settled.
func (s Snapshot) Finished() int64 {
	return s.Succeeded + s.Failed + s.TimedOut + s.Canceled
}

func (s *Stats) record(k Kind) {
	switch k {
	case Success:
		atomic.AddInt64(&s.Succeeded, 1)
	case Timeout:
		atomic.AddInt64(&s.TimedOut, 1)
	case Failure:
		atomic.AddInt64(&s.Failed, 1)
	case Canceled:
		atomic.AddInt64(&s.Canceled, 1)
	}
}
