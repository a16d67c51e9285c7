package service

// tickCounter drives the 10s/60s/5min/1hour sub-ticks of the §4.9
// one-second periodic task from a plain second counter, kept separate
// from Service so the cadence logic can be exercised without a running
// scheduler.
type tickCounter struct {
	seconds int
}

// ticks is which sub-tick boundaries a given second crossed.
type ticks struct {
	Ten, Sixty, FiveMin, Hour bool
}

// Advance increments the counter by one second and reports which
// boundaries it crossed.
func (c *tickCounter) Advance() ticks {
	c.seconds++
	return ticks{
		Ten:     c.seconds%10 == 0,
		Sixty:   c.seconds%60 == 0,
		FiveMin: c.seconds%300 == 0,
		Hour:    c.seconds%3600 == 0,
	}
}
