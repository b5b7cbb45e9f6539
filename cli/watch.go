package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/zenvpn/zen-console/job"
	"github.com/zenvpn/zen-console/logger"
)

func newDashboardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the fleet summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := app.Services.Panel.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("users: %d total, %d active\n", data.Stats.TotalUsers, data.Stats.ActiveUsers)
			fmt.Printf("traffic: %s (%s up / %s down)\n",
				formatBytes(data.Stats.TotalTraffic, false),
				formatBytes(data.Stats.TotalUpload, false),
				formatBytes(data.Stats.TotalDownload, false))

			if len(data.Nodes) > 0 {
				fmt.Println()
				w := table()
				fmt.Fprintln(w, "NODE\tADDRESS\tSTATE\tUSERS\tINBOUNDS")
				for _, n := range data.Nodes {
					state := "offline"
					if n.Online {
						state = "online"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", n.Name, n.Address, state, n.UsersCount, n.InboundsCount)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if len(data.TrafficChart) > 0 {
				fmt.Println()
				w := table()
				fmt.Fprintln(w, "DATE\tUPLOAD\tDOWNLOAD")
				for _, p := range data.TrafficChart {
					fmt.Fprintf(w, "%s\t%s\t%s\n", p.Date, formatBytes(p.Upload, false), formatBytes(p.Download, false))
				}
				return w.Flush()
			}
			return nil
		},
	}
}

func newWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run periodic node liveness sweeps until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep := job.NewCheckNodeStatusJob(app.Services, app.Config.RequestTimeout)

			c := cron.New(cron.WithSeconds())
			schedule := fmt.Sprintf("@every %s", app.Config.StatusInterval)
			if _, err := c.AddJob(schedule, sweep); err != nil {
				return fmt.Errorf("schedule status sweep: %w", err)
			}

			// First sweep immediately so the liveness cache is warm.
			sweep.Run()
			c.Start()
			logger.Infof("watching node status every %s, ctrl-c to stop", app.Config.StatusInterval)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			ctx := c.Stop()
			<-ctx.Done()
			return nil
		},
	}
}

func newLogsCommand(app *App) *cobra.Command {
	var (
		count int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent console log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, line := range app.Services.Panel.Logs(count, level) {
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 50, "number of entries")
	cmd.Flags().StringVar(&level, "level", "INFO", "minimum severity to include")
	return cmd
}
