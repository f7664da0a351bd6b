package domain

import (
	"fmt"
	"strings"
)

type User struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating,omitempty"`
	Rank      string `json:"rank,omitempty"`
	MaxRating int    `json:"maxRating,omitempty"`
	MaxRank   string `json:"maxRank,omitempty"`
}

func (u *User) URL() string {
	return "https://codeforces.com/profile/" + u.Handle
}

func (u *User) LinkedHandle() string {
	return fmt.Sprintf("<a href='%s'>%s</a>", u.URL(), u.Handle)
}

func (u *User) String() string {
	text := "Handle: " + u.LinkedHandle() + "\n"
	if u.Rating > 0 {
		text += fmt.Sprintf("Rating: %d, %s\n", u.Rating, capwords(u.Rank))
		text += fmt.Sprintf("Peak rating: %d, %s", u.MaxRating, capwords(u.MaxRank))
	} else {
		text += "Unrated"
	}
	return text
}

func capwords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
