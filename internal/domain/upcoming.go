package domain

import (
	"fmt"
	"time"
)

// Resources maps clist.by resource hosts to display names. Doubles as the
// whitelist of platforms worth announcing.
var Resources = map[string]string{
	"codeforces.com":                    "Codeforces",
	"leetcode.com":                      "LeetCode",
	"codingcompetitions.withgoogle.com": "Google",
	"facebook.com/hackercup":            "Meta",
	"stats.ioinformatics.org":           "IOI",
	"icpc.global":                       "ICPC",
}

// UpcomingContest is a contest announcement sourced from clist.by. Times
// are UTC wall-clock as parsed from the API.
type UpcomingContest struct {
	Event    string
	Href     string
	Resource string
	Start    time.Time
	End      time.Time
}

func (c *UpcomingContest) LinkedName() string {
	return fmt.Sprintf("%s: <a href='%s'>%s</a>", Resources[c.Resource], c.Href, c.Event)
}

func (c *UpcomingContest) String() string {
	start := c.Start.In(DisplayZone)
	end := c.End.In(DisplayZone)

	text := start.Format("Jan 2 (Mon) 15:04 - ")
	if c.End.Sub(c.Start) >= 24*time.Hour {
		text += end.Format("Jan 2 (Mon) 15:04")
	} else {
		text += end.Format("15:04")
	}
	text += " HKT\n"
	text += c.LinkedName() + "\n"

	now := time.Now()
	if now.Before(c.Start) {
		text += "Starts in " + Duration(c.Start.Sub(now))
	} else {
		text += "Ends in " + Duration(c.End.Sub(now))
	}
	return text
}
