package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChronoDelay(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	c := NewChrono()
	c.now = func() time.Time { return clock }

	c.Start("nb")
	clock = base.Add(1*time.Hour + 2*time.Minute + 3*time.Second + 700*time.Millisecond)
	c.Stop("nb")

	require.Equal(t, "1:02:03", c.Delay("nb"))
	require.Equal(t, "01/03/24 10:00:00", c.StartedAt("nb"))
	require.Equal(t, "01/03/24 11:02:03", c.EndedAt("nb"))
}

func TestChronoDelaySeconds(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	c := NewChrono()
	c.now = func() time.Time { return clock }

	c.Start("main")
	clock = base.Add(1500 * time.Millisecond)
	c.Stop("main")

	require.InDelta(t, 1.5, c.DelaySeconds("main"), 1e-9)
}

func TestChronoReset(t *testing.T) {
	t.Parallel()

	c := NewChrono()
	c.Start("nb")
	c.Stop("nb")
	c.Reset()

	require.Equal(t, "0:00:00", c.Delay("nb"))
}
