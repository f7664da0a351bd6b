package clist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

func TestGetUpcomingContests(t *testing.T) {
	soon := time.Now().Add(2 * time.Hour).UTC()
	later := time.Now().Add(26 * time.Hour).UTC()
	farOut := time.Now().Add(20 * 24 * time.Hour).UTC()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "ApiKey test-key" {
			t.Errorf("Authorization = %q, want the ApiKey header", got)
		}
		if got := r.URL.Query().Get("upcoming"); got != "true" {
			t.Errorf("upcoming = %q, want true", got)
		}
		w.Header().Set("Content-Type", "application/json")
		layout := "2006-01-02T15:04:05"
		fmt.Fprintf(w, `{"objects":[
			{"event":"Weekly Contest","href":"https://leetcode.com/w","resource":"leetcode.com","start":%q,"end":%q},
			{"event":"Round 900","href":"https://codeforces.com/r","resource":"codeforces.com","start":%q,"end":%q},
			{"event":"Distant Cup","href":"https://codeforces.com/d","resource":"codeforces.com","start":%q,"end":%q},
			{"event":"Broken","href":"https://codeforces.com/b","resource":"codeforces.com","start":"soon","end":"later"}
		]}`,
			later.Format(layout), later.Add(time.Hour+30*time.Minute).Format(layout),
			soon.Format(layout), soon.Add(2*time.Hour).Format(layout),
			farOut.Format(layout), farOut.Add(2*time.Hour).Format(layout),
		)
	}))
	defer server.Close()

	client := NewClient(&config.ClistConfig{BaseURL: server.URL, APIKey: "test-key"}, nopLogger{})

	contests, err := client.GetUpcomingContests(context.Background())
	if err != nil {
		t.Fatalf("GetUpcomingContests() error: %v", err)
	}

	if len(contests) != 2 {
		t.Fatalf("contests = %+v, want 2 (horizon and bad timestamps filtered)", contests)
	}
	if contests[0].Event != "Round 900" || contests[1].Event != "Weekly Contest" {
		t.Fatalf("contests = %+v, want soonest first", contests)
	}
	if contests[0].Start.Location() != time.UTC {
		t.Error("timestamps must be parsed as UTC")
	}
}
