package report

import (
	"fmt"
	"time"
)

// TimeLayout is the timestamp format used throughout the CI report.
const TimeLayout = "02/01/06 15:04:05"

// Chrono keeps start/stop timestamps per id. The runner uses one id for the
// whole session ("main") and one per notebook ("nb").
type Chrono struct {
	start map[string]time.Time
	end   map[string]time.Time
	now   func() time.Time
}

// NewChrono returns an empty Chrono using the wall clock.
func NewChrono() *Chrono {
	return &Chrono{
		start: make(map[string]time.Time),
		end:   make(map[string]time.Time),
		now:   time.Now,
	}
}

// Start records the start time for id.
func (c *Chrono) Start(id string) { c.start[id] = c.now() }

// Stop records the end time for id.
func (c *Chrono) Stop(id string) { c.end[id] = c.now() }

// StartedAt returns the recorded start time for id, formatted.
func (c *Chrono) StartedAt(id string) string {
	return c.start[id].Format(TimeLayout)
}

// EndedAt returns the recorded end time for id, formatted.
func (c *Chrono) EndedAt(id string) string {
	return c.end[id].Format(TimeLayout)
}

// Delay returns the elapsed time between Start and Stop for id as an
// "H:MM:SS" string, truncated to whole seconds.
func (c *Chrono) Delay(id string) string {
	d := c.end[id].Sub(c.start[id]).Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// DelaySeconds returns the elapsed time for id in seconds, rounded to two
// decimal places.
func (c *Chrono) DelaySeconds(id string) float64 {
	d := c.end[id].Sub(c.start[id])
	return float64(int64(d.Seconds()*100+0.5)) / 100
}

// Reset forgets all recorded times.
func (c *Chrono) Reset() {
	c.start = make(map[string]time.Time)
	c.end = make(map[string]time.Time)
}
