package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/bakery-bookings/internal/availability"
	"github.com/iliyamo/bakery-bookings/internal/config"
	"github.com/iliyamo/bakery-bookings/internal/model"
	"github.com/iliyamo/bakery-bookings/internal/service"
)

func newSlotsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the slot grid, or the free slots of --date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				sched, err := config.LoadSchedule()
				if err != nil {
					return err
				}
				eng, err := availability.New(sched.ToAvailability(), availability.WithLocation(sched.Location()))
				if err != nil {
					return err
				}
				printGrid(cmd.OutOrStdout(), eng)
				return nil
			}

			d, err := model.ParseDate(date)
			if err != nil {
				return err
			}
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.openStore(ctx, false); err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			bookings, err := service.NewBookingService(a.store, eng, nil, a.log, 0)
			if err != nil {
				return err
			}
			day, err := bookings.Availability(ctx, d)
			if err != nil {
				return err
			}
			printDay(cmd.OutOrStdout(), day)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "event date (YYYY-MM-DD)")
	return cmd
}

func printGrid(w io.Writer, eng *availability.Engine) {
	first, last := eng.Window()
	fmt.Fprintf(w, "bookable %s .. %s\n", first, last)
	for _, g := range availability.GroupSlots(eng.GenerateDailySlots()) {
		fmt.Fprintf(w, "%s:\n", g.Name)
		for _, s := range g.Slots {
			fmt.Fprintf(w, "  %s  %s\n", s, availability.DisplayLabel(s))
		}
	}
}

func printDay(w io.Writer, day service.DayAvailability) {
	if !day.InWindow {
		fmt.Fprintf(w, "%s is outside the booking window %s .. %s\n", day.Date, day.WindowStart, day.WindowEnd)
		return
	}
	if len(day.Slots) == 0 {
		fmt.Fprintf(w, "%s is fully booked\n", day.Date)
		return
	}
	fmt.Fprintf(w, "%s: %d free\n", day.Date, len(day.Slots))
	for _, g := range day.Groups {
		fmt.Fprintf(w, "%s:\n", g.Name)
		for _, s := range g.Slots {
			fmt.Fprintf(w, "  %s  %s\n", s, day.Labels[s])
		}
	}
	if day.FullDayAvailable {
		fmt.Fprintf(w, "%s\n", day.FullDayLabel)
	}
}
