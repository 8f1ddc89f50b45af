package lottery

import (
	"math/rand"
	"time"

	"github.com/HARSHv95/Focus-Mode-Scheduler/tickets"
)

// Scheduler draws one winner per round, each entry winning with probability tickets/total.
// It is not safe for concurrent use; the daemon calls it from a single goroutine.
type Scheduler struct {
	rnd *rand.Rand
}

func New(src rand.Source) *Scheduler {
	return &Scheduler{rnd: rand.New(src)}
}

// NewTimeSeeded seeds once from the wall clock, draws are not reproducible across runs.
func NewTimeSeeded() *Scheduler {
	return New(rand.NewSource(time.Now().UnixNano()))
}

// PickWinner returns false when there are no entries or no positive tickets.
// Entries above tickets.MaxTickets take no part in the draw.
func (s *Scheduler) PickWinner(entries []tickets.Entry) (int, bool) {
	if len(entries) == 0 {
		return 0, false
	}

	total := tickets.Table(entries).Total()
	if total <= 0 {
		return 0, false
	}

	// 1..total inclusive
	r := s.rnd.Int63n(total) + 1

	var acc int64
	for _, e := range entries {
		w := e.Weight()
		if w == 0 {
			continue
		}
		acc += w
		if r <= acc {
			return e.Pid, true
		}
	}
	return entries[len(entries)-1].Pid, true
}
