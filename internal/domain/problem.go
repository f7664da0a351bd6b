package domain

import (
	"fmt"
	"strings"
)

type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating,omitempty"`
	Tags      []string `json:"tags"`
	// ProblemsetName is set for non-main problemsets (acmsguru etc.)
	// which the bot ignores.
	ProblemsetName string `json:"problemsetName,omitempty"`
}

// ID is the short identifier used everywhere in chat, e.g. "1700A".
func (p *Problem) ID() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

func (p *Problem) URL() string {
	return fmt.Sprintf("https://codeforces.com/problemset/problem/%d/%s", p.ContestID, p.Index)
}

func (p *Problem) LinkedName() string {
	return fmt.Sprintf("<a href='%s'>%s - %s</a>", p.URL(), p.ID(), p.Name)
}

func (p *Problem) String() string {
	text := p.LinkedName() + "\n"
	text += "Tags: " + strings.Join(p.Tags, ", ") + "\n"
	if p.Rating > 0 {
		text += fmt.Sprintf("Rating: %d", p.Rating)
	} else {
		text += "Rating: not rated"
	}
	return text
}
