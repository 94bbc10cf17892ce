package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/y0ug/scanvault/internal/models"
)

// renderEntries prints entries as a coloured terminal table.
func renderEntries(w io.Writer, entries []models.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scan history.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Filename", "Uploaded", "Risk", "Matches", "Rules", "Duration"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")

	counts := map[models.RiskLevel]int{}
	for _, e := range entries {
		counts[e.Classification]++
		table.Append([]string{
			e.ID,
			e.Filename,
			e.UploadedAt.Local().Format("2006-01-02 15:04:05"),
			colorRisk(e.Classification),
			fmt.Sprintf("%d", e.TotalMatches),
			fmt.Sprintf("%d/%d", e.ScanStats.MatchedRules, e.ScanStats.TotalRules),
			e.ScanStats.ScanDuration,
		})
	}
	table.Render()

	fmt.Fprintf(w, "  Summary: %s\n", formatSummary(len(entries), counts))
}

func colorRisk(level models.RiskLevel) string {
	label := strings.ToUpper(string(level))
	switch level {
	case models.RiskHigh:
		return color.RedString(label)
	case models.RiskMedium:
		return color.YellowString(label)
	case models.RiskLow:
		return color.GreenString(label)
	default:
		return color.WhiteString(label)
	}
}

func formatSummary(total int, counts map[models.RiskLevel]int) string {
	return fmt.Sprintf("%d entries (%d high, %d medium, %d low, %d unknown)",
		total,
		counts[models.RiskHigh],
		counts[models.RiskMedium],
		counts[models.RiskLow],
		counts[models.RiskUnknown],
	)
}
