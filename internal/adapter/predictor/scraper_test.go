package predictor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cfwarrior/tgbot/internal/config"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

const resultsPage = `<html><body>
<table class="table">
<thead><tr><th>#</th><th>Handle</th><th>&Delta;</th></tr></thead>
<tbody>
<tr><td>1</td><td>tourist</td><td>113</td></tr>
<tr><td> 2 </td><td> alice </td><td> -42 </td></tr>
<tr><td>header-ish</td><td>junk</td><td>row</td></tr>
</tbody>
</table>
</body></html>`

func TestParseResultsTable(t *testing.T) {
	deltas, err := parseResultsTable(strings.NewReader(resultsPage))
	if err != nil {
		t.Fatalf("parseResultsTable() error: %v", err)
	}

	if len(deltas) != 2 {
		t.Fatalf("deltas = %+v, want the two numeric rows", deltas)
	}
	tourist := deltas["tourist"]
	if tourist.Rank != 1 || tourist.Delta != "+113" {
		t.Errorf("tourist = %+v, want rank 1 delta +113 (sign added)", tourist)
	}
	alice := deltas["alice"]
	if alice.Rank != 2 || alice.Delta != "-42" {
		t.Errorf("alice = %+v, want rank 2 delta -42 with cells trimmed", alice)
	}
}

func TestPredictedDeltasCollapsesConcurrentFetches(t *testing.T) {
	var upstream int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&upstream, 1)
		if got := r.URL.Query().Get("contestId"); got != "1700" {
			t.Errorf("contestId = %q, want 1700", got)
		}
		fmt.Fprint(w, resultsPage)
	}))
	defer server.Close()

	scraper := NewScraper(&config.PredictorConfig{URL: server.URL}, nopLogger{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deltas, err := scraper.PredictedDeltas(context.Background(), 1700)
			if err != nil {
				t.Errorf("PredictedDeltas() error: %v", err)
				return
			}
			if deltas["tourist"].Delta != "+113" {
				t.Errorf("deltas = %+v, want tourist at +113", deltas)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&upstream); got != 1 {
		t.Errorf("upstream fetched %d times, want 1", got)
	}
}
