package ratelimit

import "time"

// Visibility thresholds for cooldown waits.
const (
	// WarnWaitThreshold is the wait above which a log line announces the pause.
	WarnWaitThreshold = 2 * time.Second

	// WarnMinInterval is the minimum time between consecutive wait announcements.
	// Prevents log spam during long bulk runs where every item waits.
	WarnMinInterval = 10 * time.Second
)
