package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/python-wizard/course-enrollment/analytics"
	"github.com/python-wizard/course-enrollment/ptr"
	"github.com/python-wizard/course-enrollment/slices"
	"github.com/spf13/cobra"
)

func analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Inspect stored analytics or drive a session collector",
	}

	cmd.AddCommand(analyticsListCmd())
	cmd.AddCommand(analyticsTrackCmd())
	cmd.AddCommand(analyticsSyncCmd())
	cmd.AddCommand(analyticsWatchCmd())
	cmd.AddCommand(analyticsClearCmd())

	return cmd
}

func analyticsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List analytics sessions stored by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("dir")
			if err != nil {
				return err
			}

			entries, err := analytics.NewStore(dir, newLogger(cmd)).List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tSESSION\tSTARTED\tDURATION\tCOUNTRY\tROUTES")
			for _, e := range entries {
				routes := slices.Map(e.Data.PageViews, func(pv analytics.PageView) string {
					return pv.Route
				})
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Filename,
					e.Data.SessionID,
					e.Data.StartTime.Format(time.RFC3339),
					time.Duration(ptr.Deref(e.Data.TotalDuration))*time.Millisecond,
					e.Data.UserInfo.Geolocation.Country,
					strings.Join(routes, " "),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringP("dir", "d", "data/analytics", "Server analytics directory")

	return cmd
}

func addCollectorFlags(cmd *cobra.Command) {
	cmd.Flags().String("state", ".enrollctl-analytics.json", "File holding the collector's local state")
	cmd.Flags().String("endpoint", "http://localhost:8080/analytics/save", "Server analytics save URL")
}

func newCollector(cmd *cobra.Command, interval time.Duration) (*analytics.Collector, error) {
	state, err := cmd.Flags().GetString("state")
	if err != nil {
		return nil, err
	}
	endpoint, err := cmd.Flags().GetString("endpoint")
	if err != nil {
		return nil, err
	}

	c := analytics.NewCollector(analytics.NewFileKeyValue(state), newLogger(cmd), analytics.CollectorOptions{
		Endpoint:     endpoint,
		SyncInterval: interval,
	})
	c.Init()
	return c, nil
}

func analyticsTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <route>...",
		Short: "Record page views in the local session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCollector(cmd, 0)
			if err != nil {
				return err
			}

			for _, route := range args {
				if err := c.TrackPageView(route); err != nil {
					return err
				}
			}

			current, _ := c.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "session %s has %d page views\n", current.SessionID, len(current.PageViews))
			return nil
		},
	}

	addCollectorFlags(cmd)

	return cmd
}

func analyticsSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Finish the local session and send it to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCollector(cmd, 0)
			if err != nil {
				return err
			}

			if err := c.Sync(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "synced, %d sessions in local history\n", len(c.History()))
			return nil
		},
	}

	addCollectorFlags(cmd)

	return cmd
}

func analyticsWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync the local session on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := cmd.Flags().GetDuration("interval")
			if err != nil {
				return err
			}

			c, err := newCollector(cmd, interval)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c.Run(ctx)
			return nil
		},
	}

	addCollectorFlags(cmd)
	cmd.Flags().Duration("interval", analytics.DefaultSyncInterval, "Time between syncs")

	return cmd
}

func analyticsClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the collector's local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCollector(cmd, 0)
			if err != nil {
				return err
			}
			return c.Clear()
		},
	}

	addCollectorFlags(cmd)

	return cmd
}
