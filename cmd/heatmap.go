package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slotmatch/slotmatch/internal/aggregate"
	"github.com/slotmatch/slotmatch/internal/config"
	"github.com/slotmatch/slotmatch/internal/live"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
	"github.com/slotmatch/slotmatch/internal/store"
)

// DefaultBestSlots is how many ranked slots the terminal views print.
const DefaultBestSlots = 5

func newHeatmapCmd() *cobra.Command {
	var (
		eventID string
		best    int
	)

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Print the availability heatmap of an event",
		Long: `Print one column per candidate window and one row per 30-minute slot.
Each cell shows how many respondents can attend out of how many answered;
slots that work for everyone are marked with *. The best slots follow the
table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID == "" {
				return errors.New("--event is required")
			}
			cfg := config.FromEnv()

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, nil, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			ev, snap, err := loadEventSnapshot(ctx, a.store, eventID)
			if err != nil {
				return err
			}
			return renderEvent(cmd.OutOrStdout(), ev, snap, best)
		},
	}

	cmd.Flags().StringVar(&eventID, "event", "", "Event id")
	cmd.Flags().IntVar(&best, "best", DefaultBestSlots, "Number of best slots to list")
	return cmd
}

// renderEvent writes the title, the heatmap and the best slots of snap.
func renderEvent(w io.Writer, ev schedule.Event, snap live.Snapshot, best int) error {
	title := fmt.Sprintf("%s (%d min)", ev.Title, ev.DurationMinutes)
	fmt.Fprintf(w, "%s\n%s\n\n", title, strings.Repeat("=", len([]rune(title))))

	if len(snap.Windows) == 0 {
		_, err := fmt.Fprintln(w, "no candidate windows yet")
		return err
	}
	if err := aggregate.RenderText(w, snap.Heatmap()); err != nil {
		return err
	}

	participants := aggregate.Participants(snap.Objections)
	fmt.Fprintf(w, "\n%d responded: %s\n\nBest slots:\n", len(participants), strings.Join(participants, ", "))
	return aggregate.RenderBest(w, snap.Best(best), func(slot string) string {
		return slotgrid.SlotEndTime(slot, ev.DurationMinutes)
	})
}

// loadEventSnapshot reads the event and its current state.
func loadEventSnapshot(ctx context.Context, r store.Reader, eventID string) (schedule.Event, live.Snapshot, error) {
	ev, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return schedule.Event{}, live.Snapshot{}, fmt.Errorf("failed to load event: %w", err)
	}
	snap, err := live.Load(ctx, r, eventID)
	if err != nil {
		return schedule.Event{}, live.Snapshot{}, err
	}
	return ev, snap, nil
}
