// Package cli implements the zenctl command tree.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/zenvpn/zen-console/config"
	"github.com/zenvpn/zen-console/logger"
	"github.com/zenvpn/zen-console/service"
)

// App carries the wired services through the command tree.
type App struct {
	Config   config.Config
	Services *service.Services
}

// NewRootCommand builds the zenctl command tree.
func NewRootCommand() *cobra.Command {
	app := &App{}
	var cfgFile string

	root := &cobra.Command{
		Use:           "zenctl",
		Short:         "Management console for a fleet of proxy relay nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if level, lerr := logging.LogLevel(cfg.LogLevel); lerr == nil {
				logger.InitLogger(level)
			}
			app.Config = cfg
			app.Services = service.New(cfg)
			if err := app.Services.Session.LoadToken(); err != nil {
				logger.Warningf("session restore failed: %v", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultFile()+")")

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newPasswdCommand(app),
		newUsersCommand(app),
		newNodesCommand(app),
		newInboundsCommand(app),
		newDashboardCommand(app),
		newWatchCommand(app),
		newLogsCommand(app),
	)
	return root
}

// table returns a tabwriter on stdout; callers must Flush.
func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
}

// formatBytes renders a byte count the way the panel does, or "unlimited"
// for zero limits when unlimitedZero is set.
func formatBytes(n int64, unlimitedZero bool) string {
	if n == 0 && unlimitedZero {
		return "unlimited"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
