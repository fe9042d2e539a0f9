package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ime/scheduler/internal/config"
	"github.com/ime/scheduler/internal/domain/availability"
)

func resolveCmd() *cobra.Command {
	var (
		req      availability.Request
		start    string
		today    string
		snapshot string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve availability for one examination and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// Logs go to stderr so that stdout carries only the result.
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)

			if start != "" {
				if req.StartDate, err = availability.ParseDate(start); err != nil {
					return err
				}
			}
			options := []availability.Option{availability.WithLogger(logger)}
			if today != "" {
				d, err := availability.ParseDate(today)
				if err != nil {
					return err
				}
				options = append(options, availability.WithClock(func() time.Time { return d.Time() }))
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			be, err := openBackend(ctx, cfg, snapshot)
			if err != nil {
				return err
			}
			defer be.close()

			svc := availability.NewService(be.providers, be.exams, be.bookings, serviceOptions(cfg), options...)
			res, err := svc.Resolve(ctx, req)
			if err != nil {
				if kind := availability.KindOf(err); kind != "" {
					return fmt.Errorf("%s: %w", kind, err)
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.ExaminationID, "examination", "", "Examination ID (required)")
	f.StringVar(&req.ClaimantID, "claimant", "", "Claimant ID, defaults to the examination's claimant")
	f.StringVar(&start, "start", "", "First date to consider, YYYY-MM-DD (default today)")
	f.StringVar(&req.ExcludeBookingID, "exclude-booking", "", "Booking to ignore when checking conflicts")
	f.IntVar(&req.Settings.WindowDays, "window-days", 0, "Days after the start date to include")
	f.IntVar(&req.Settings.WorkingHoursPerDay, "working-hours", 0, "Working hours per day")
	f.StringVar(&req.Settings.StartOfWorkingUTC, "start-of-working", "", "Start of the working day, HH:MM UTC")
	f.IntVar(&req.Settings.SlotDurationMinutes, "slot-minutes", 0, "Slot length in minutes")
	f.StringVar(&snapshot, "snapshot", "", "Read from a YAML snapshot instead of Postgres")
	f.StringVar(&today, "today", "", "Override today's date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("examination")

	return cmd
}
