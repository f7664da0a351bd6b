package delta

import (
	"fmt"
	"sort"
	"strings"
)

type tableRow struct {
	Rank   int
	Handle string
	Delta  string
}

// renderTable lays rows out as a fixed-width ascii table, sorted by rank.
// The output is meant for a <pre> block, so alignment is done with spaces.
func renderTable(rows []tableRow) string {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })

	rankWidth := len("#")
	handleWidth := len("Handle")
	deltaWidth := len("Delta")
	for _, row := range rows {
		if w := len(fmt.Sprintf("%d", row.Rank)); w > rankWidth {
			rankWidth = w
		}
		if w := len(row.Handle); w > handleWidth {
			handleWidth = w
		}
		if w := len(row.Delta); w > deltaWidth {
			deltaWidth = w
		}
	}

	var b strings.Builder
	divider := fmt.Sprintf(
		"+%s+%s+%s+\n",
		strings.Repeat("-", rankWidth+2),
		strings.Repeat("-", handleWidth+2),
		strings.Repeat("-", deltaWidth+2),
	)

	b.WriteString(divider)
	fmt.Fprintf(&b, "| %*s | %-*s | %*s |\n", rankWidth, "#", handleWidth, "Handle", deltaWidth, "Delta")
	b.WriteString(divider)
	for _, row := range rows {
		fmt.Fprintf(&b, "| %*d | %-*s | %*s |\n", rankWidth, row.Rank, handleWidth, row.Handle, deltaWidth, row.Delta)
	}
	b.WriteString(divider)
	return strings.TrimRight(b.String(), "\n")
}
