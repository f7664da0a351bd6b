package domain

import (
	"fmt"
	"strings"
	"time"
)

// Verdicts the bot cares about. The Codeforces API has more; anything not
// listed here falls through the default classification path.
const (
	VerdictOK         = "OK"
	VerdictTesting    = "TESTING"
	VerdictChallenged = "CHALLENGED"
	VerdictSkipped    = "SKIPPED"
	VerdictPartial    = "PARTIAL"
)

const TestsetPretests = "PRETESTS"

type ParticipantType string

const (
	ParticipantContestant       ParticipantType = "CONTESTANT"
	ParticipantPractice         ParticipantType = "PRACTICE"
	ParticipantVirtual          ParticipantType = "VIRTUAL"
	ParticipantManager          ParticipantType = "MANAGER"
	ParticipantOutOfCompetition ParticipantType = "OUT_OF_COMPETITION"
)

// Party is the author of a submission: a single member for individual
// participation, several plus a team id for team rounds.
type Party struct {
	ContestID       int             `json:"contestId"`
	Members         []User          `json:"members"`
	ParticipantType ParticipantType `json:"participantType"`
	TeamID          *int            `json:"teamId,omitempty"`
}

func (p *Party) NotTeam() bool {
	return p.TeamID == nil
}

// Submission is one attempt at one problem. Verdict is empty while the
// submission sits in the judging queue.
type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	Author              Party   `json:"author"`
	ProgrammingLanguage string  `json:"programmingLanguage"`
	Verdict             string  `json:"verdict,omitempty"`
	Testset             string  `json:"testset"`
	PassedTestCount     int     `json:"passedTestCount"`
}

func (s *Submission) Time() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0)
}

// Same reports whether an already-seen submission should be treated as
// unchanged. Deliberately narrow: only verdict and testset transitions are
// re-evaluated, a growing passed-test count alone is not an update.
func (s *Submission) Same(other *Submission) bool {
	return s.Verdict == other.Verdict && s.Testset == other.Testset
}

// Author returns the single submitting user, or nil for team submissions.
func (s *Submission) SubmittingUser() *User {
	if s.Author.NotTeam() && len(s.Author.Members) > 0 {
		return &s.Author.Members[0]
	}
	return nil
}

// ShouldNotify classifies a changed submission for group announcement.
// Accepted runs and successful hacks always notify. Beyond that only the
// failed-system-test pattern is interesting: a real contestant whose
// submission passed pretests and then failed the full run, in a contest
// type that actually retests after the coding phase.
func (s *Submission) ShouldNotify(contest *Contest) bool {
	switch s.Verdict {
	case "", VerdictTesting:
		return false
	case VerdictOK, VerdictChallenged:
		return true
	case VerdictSkipped, VerdictPartial:
		return false
	}

	return strings.HasPrefix(s.Testset, "TESTS") &&
		contest.Type == ScoringCF &&
		s.Author.ParticipantType == ParticipantContestant &&
		s.Author.NotTeam()
}

// Message renders the group announcement for this submission in Telegram
// HTML.
func (s *Submission) Message() string {
	var who string
	if user := s.SubmittingUser(); user != nil {
		who = user.LinkedHandle()
	} else {
		who = "A team"
	}

	switch s.Verdict {
	case VerdictOK:
		return fmt.Sprintf("%s solved %s", who, s.Problem.LinkedName())
	case VerdictChallenged:
		return fmt.Sprintf("%s got hacked on %s", who, s.Problem.LinkedName())
	default:
		return fmt.Sprintf(
			"%s failed system tests on %s\nVerdict: %s on test %d",
			who, s.Problem.LinkedName(), s.Verdict, s.PassedTestCount+1,
		)
	}
}
