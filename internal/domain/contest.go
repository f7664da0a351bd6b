package domain

import (
	"fmt"
	"time"
)

type ContestScoring string

const (
	ScoringCF   ContestScoring = "CF"
	ScoringIOI  ContestScoring = "IOI"
	ScoringICPC ContestScoring = "ICPC"
)

type ContestPhase string

const (
	PhaseBefore            ContestPhase = "BEFORE"
	PhaseCoding            ContestPhase = "CODING"
	PhasePendingSystemTest ContestPhase = "PENDING_SYSTEM_TEST"
	PhaseSystemTest        ContestPhase = "SYSTEM_TEST"
	PhaseFinished          ContestPhase = "FINISHED"
)

type Contest struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	Type             ContestScoring `json:"type"`
	Phase            ContestPhase   `json:"phase"`
	DurationSeconds  int64          `json:"durationSeconds"`
	StartTimeSeconds int64          `json:"startTimeSeconds"`
}

func (c *Contest) StartTime() time.Time {
	return time.Unix(c.StartTimeSeconds, 0)
}

func (c *Contest) EndTime() time.Time {
	return c.StartTime().Add(time.Duration(c.DurationSeconds) * time.Second)
}

func (c *Contest) URL() string {
	return fmt.Sprintf("https://codeforces.com/contests/%d", c.ID)
}

func (c *Contest) LinkedName() string {
	return fmt.Sprintf("<a href='%s'>%s</a>", c.URL(), c.Name)
}

// RatingChange is an official post-contest rating delta for one handle.
type RatingChange struct {
	ContestID int    `json:"contestId"`
	Handle    string `json:"handle"`
	Rank      int    `json:"rank"`
	OldRating int    `json:"oldRating"`
	NewRating int    `json:"newRating"`
}

func (r *RatingChange) Delta() int {
	return r.NewRating - r.OldRating
}
