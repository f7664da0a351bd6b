package config

import "time"

type PollCfg struct {
	// HandleInterval is the minimum spacing between consecutive handle
	// updates. Codeforces rate-limits aggressively; historical deployments
	// ran between 2.8s and 3s.
	HandleInterval time.Duration
	// StatusCount is how many recent submissions are fetched per handle.
	StatusCount int
	// ReminderInterval is the upcoming-contest check cadence.
	ReminderInterval time.Duration
}

func NewPollCfg() *PollCfg {
	return &PollCfg{
		HandleInterval:   time.Duration(getEnvAsInt("POLL_HANDLE_INTERVAL_SEC", 3)) * time.Second,
		StatusCount:      getEnvAsInt("POLL_STATUS_COUNT", 100),
		ReminderInterval: time.Duration(getEnvAsInt("CONTEST_REMINDER_INTERVAL_SEC", 300)) * time.Second,
	}
}
