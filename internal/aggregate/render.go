package aggregate

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Cell markers used by RenderText.
const (
	MarkNotApplicable = "·"
	MarkNoData        = "-"
	MarkAllOK         = "*"
)

// RenderText writes hm as a table: one column per window headed by its
// month-day and start time, one row per slot. Each applicable cell shows
// OK/respondents, and all-clear cells are marked with MarkAllOK.
func RenderText(w io.Writer, hm Heatmap) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, 0, len(hm.Windows)+1)
	header = append(header, "slot")
	for _, win := range hm.Windows {
		header = append(header, columnTitle(win.Date, win.StartTime))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range hm.Rows {
		fields := make([]string, 0, len(row.Cells)+1)
		fields = append(fields, row.Label)
		for _, c := range row.Cells {
			fields = append(fields, cellText(c))
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t"))
	}
	return tw.Flush()
}

// RenderBest writes one line per ranked slot, with the meeting end time
// produced by endTime.
func RenderBest(w io.Writer, ranked []RankedSlot, endTime func(slot string) string) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, "no slot works for everyone yet")
		return err
	}
	for i, r := range ranked {
		if _, err := fmt.Fprintf(w, "%2d. %s %s-%s  %d OK\n", i+1, r.Date, r.Slot, endTime(r.Slot), r.OKCount); err != nil {
			return err
		}
	}
	return nil
}

func columnTitle(date, start string) string {
	if len(date) == len("2006-01-02") {
		date = date[5:]
	}
	return date + " " + start
}

func cellText(c HeatCell) string {
	switch {
	case !c.Applicable:
		return MarkNotApplicable
	case c.Level == LevelNoData:
		return MarkNoData
	}
	text := fmt.Sprintf("%d/%d", c.Cell.OKCount(), c.Cell.Respondents())
	if c.Level == LevelAllOK {
		text += " " + MarkAllOK
	}
	return text
}
