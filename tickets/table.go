package tickets

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MaxTickets bounds a single entry so that table totals cannot overflow int64.
const MaxTickets = math.MaxInt32

// a valid line is two short integers, anything longer is skipped unread
const maxLineLen = 4096

var ErrInvalidEntry = fmt.Errorf("pid must be > 0 and tickets in [1, %d]", MaxTickets)

// Entry is one managed process and its lottery weight.
type Entry struct {
	Pid     int
	Tickets int
}

func (e Entry) Valid() bool {
	return e.Pid > 0 && e.Tickets > 0 && e.Tickets <= MaxTickets
}

// Weight is the entry's share in a draw: its tickets, or 0 when they are out of range.
func (e Entry) Weight() int64 {
	if e.Tickets <= 0 || e.Tickets > MaxTickets {
		return 0
	}
	return int64(e.Tickets)
}

func (e Entry) String() string {
	return fmt.Sprintf("%d %d", e.Pid, e.Tickets)
}

// Table keeps entries in file order with unique pids.
type Table []Entry

// Upsert updates the tickets of pid in place, or appends a new entry.
// It reports whether an existing entry was updated.
func (t *Table) Upsert(pid, tickets int) (bool, error) {
	e := Entry{Pid: pid, Tickets: tickets}
	if !e.Valid() {
		return false, fmt.Errorf("%d %d: %w", pid, tickets, ErrInvalidEntry)
	}
	for i := range *t {
		if (*t)[i].Pid == pid {
			(*t)[i].Tickets = tickets
			return true, nil
		}
	}
	*t = append(*t, e)
	return false, nil
}

// Remove drops pid and reports whether it was present.
func (t *Table) Remove(pid int) bool {
	out := (*t)[:0]
	found := false
	for _, e := range *t {
		if e.Pid == pid {
			found = true
			continue
		}
		out = append(out, e)
	}
	*t = out
	return found
}

func (t Table) Lookup(pid int) (Entry, bool) {
	for _, e := range t {
		if e.Pid == pid {
			return e, true
		}
	}
	return Entry{}, false
}

// Total sums the entry weights.
func (t Table) Total() int64 {
	var total int64
	for _, e := range t {
		total += e.Weight()
	}
	return total
}

func (t Table) Pids() []int {
	pids := make([]int, 0, len(t))
	for _, e := range t {
		pids = append(pids, e.Pid)
	}
	return pids
}

// Parse reads "<pid> <tickets>" lines. Lines that are blank, overlong, have the
// wrong number of fields, hold non-numeric or out of range values are skipped
// and the scan goes on with the next line.
// A pid seen twice keeps its first position and its last ticket count.
func Parse(r io.Reader) (Table, error) {
	var table Table
	br := bufio.NewReaderSize(r, maxLineLen)
	for {
		line, isPrefix, err := br.ReadLine()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return table, err
		}
		if isPrefix {
			if err := skipLine(br); err != nil {
				if err == io.EOF {
					return table, nil
				}
				return table, err
			}
			continue
		}
		e, ok := parseLine(string(line))
		if !ok {
			continue
		}
		// cannot fail, e is valid
		table.Upsert(e.Pid, e.Tickets)
	}
}

// skipLine discards the remainder of a line longer than the read buffer.
func skipLine(br *bufio.Reader) error {
	for {
		_, isPrefix, err := br.ReadLine()
		if err != nil {
			return err
		}
		if !isPrefix {
			return nil
		}
	}
}

func parseLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Entry{}, false
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return Entry{}, false
	}
	tickets, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return Entry{}, false
	}
	e := Entry{Pid: pid, Tickets: int(tickets)}
	return e, e.Valid()
}

// Write serializes the valid entries, one per line.
func (t Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range t {
		if !e.Valid() {
			continue
		}
		if _, err := fmt.Fprintln(bw, e.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
