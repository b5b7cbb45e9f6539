package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenvpn/zen-console/model"
)

func newUsersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage provisioned users",
	}
	cmd.AddCommand(
		newUsersListCommand(app),
		newUsersGetCommand(app),
		newUsersCreateCommand(app),
		newUsersUpdateCommand(app),
		newUsersDeleteCommand(app),
		newUsersEnableCommand(app, true),
		newUsersEnableCommand(app, false),
		newUsersResetUUIDCommand(app),
		newUsersResetTrafficCommand(app),
		newUsersConfigCommand(app),
	)
	return cmd
}

func newUsersListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Services.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			w := table()
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tUSED\tLIMIT\tEXPIRES\tINBOUNDS")
			now := time.Now()
			for _, u := range users {
				expires := "-"
				if u.ExpiresAt != nil {
					expires = u.ExpiresAt.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
					u.ID, u.Name, u.Status(now),
					formatBytes(u.DataUsed, false),
					formatBytes(u.DataLimit, true),
					expires, len(u.Inbounds))
			}
			return w.Flush()
		},
	}
}

func newUsersGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user with its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := app.Services.Users.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printUser(u)
			return nil
		},
	}
}

func printUser(u *model.User) {
	fmt.Printf("id:         %d\n", u.ID)
	fmt.Printf("name:       %s\n", u.Name)
	fmt.Printf("uuid:       %s\n", u.UUID)
	fmt.Printf("status:     %s\n", u.Status(time.Now()))
	fmt.Printf("data used:  %s\n", formatBytes(u.DataUsed, false))
	fmt.Printf("data limit: %s\n", formatBytes(u.DataLimit, true))
	if u.ExpiresAt != nil {
		fmt.Printf("expires:    %s\n", u.ExpiresAt.Format(time.RFC3339))
	}
	for _, in := range u.Inbounds {
		fmt.Printf("inbound:    %d %s (%s, node %d, port %d)\n",
			in.ID, in.Name, in.Protocol, in.NodeID, in.ListenPort)
	}
}

func newUsersCreateCommand(app *App) *cobra.Command {
	var (
		name      string
		dataLimit int64
		expires   string
		disabled  bool
		inbounds  []uint
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := &model.CreateUserInput{
				Name:       name,
				Enabled:    !disabled,
				DataLimit:  dataLimit,
				InboundIDs: inbounds,
			}
			if expires != "" {
				t, err := time.Parse(time.RFC3339, expires)
				if err != nil {
					return fmt.Errorf("bad --expires: %w", err)
				}
				in.ExpiresAt = &t
			}
			u, err := app.Services.Users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("created user %s (id %d)\n", u.Name, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "unique user name")
	cmd.Flags().Int64Var(&dataLimit, "data-limit", 0, "traffic quota in bytes, 0 for unlimited")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry timestamp, RFC 3339")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the user disabled")
	cmd.Flags().UintSliceVar(&inbounds, "inbound", nil, "inbound id to attach (repeatable)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newUsersUpdateCommand(app *App) *cobra.Command {
	var (
		dataLimit int64
		expires   string
		inbounds  []uint
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user (only the given flags are sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := &model.UpdateUserInput{}
			if cmd.Flags().Changed("data-limit") {
				in.DataLimit = &dataLimit
			}
			if cmd.Flags().Changed("inbound") {
				in.InboundIDs = &inbounds
			}
			if expires != "" {
				t, err := time.Parse(time.RFC3339, expires)
				if err != nil {
					return fmt.Errorf("bad --expires: %w", err)
				}
				in.ExpiresAt = &t
			}
			u, err := app.Services.Users.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Printf("updated user %s (id %d)\n", u.Name, u.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&dataLimit, "data-limit", 0, "traffic quota in bytes, 0 for unlimited")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry timestamp, RFC 3339")
	cmd.Flags().UintSliceVar(&inbounds, "inbound", nil, "replace the attachment set (repeatable)")
	return cmd
}

func newUsersDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.Services.Users.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("deleted user %d\n", id)
			return nil
		},
	}
}

func newUsersEnableCommand(app *App, enable bool) *cobra.Command {
	use, verb := "enable <id>", "enabled"
	if !enable {
		use, verb = "disable <id>", "disabled"
	}
	return &cobra.Command{
		Use:   use,
		Short: "Set the user's enabled flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := app.Services.Users.SetEnabled(cmd.Context(), id, enable)
			if err != nil {
				return err
			}
			fmt.Printf("%s user %s (id %d)\n", verb, u.Name, u.ID)
			return nil
		},
	}
}

func newUsersResetUUIDCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-uuid <id>",
		Short: "Regenerate the user's secret identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := app.Services.Users.ResetUUID(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("new uuid for %s: %s\n", u.Name, u.UUID)
			return nil
		},
	}
}

func newUsersResetTrafficCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-traffic <id>",
		Short: "Zero the user's traffic counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := app.Services.Users.ResetTraffic(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("traffic reset for %s (used now %s)\n", u.Name, formatBytes(u.DataUsed, false))
			return nil
		},
	}
}

func newUsersConfigCommand(app *App) *cobra.Command {
	var (
		showSingbox bool
		showSub     bool
		qrOut       string
	)
	cmd := &cobra.Command{
		Use:   "config <id>",
		Short: "Fetch the user's connection material",
		Long: "Fetches the user's current Config artifact: share URLs per attached\n" +
			"inbound, the sing-box client configuration, the subscription blob, and\n" +
			"optional QR images. Always fetched fresh; never reuse an old artifact\n" +
			"after an inbound or node change.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := app.Services.Configs.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			switch {
			case showSingbox:
				data, err := app.Services.Configs.SingboxJSON(cfg)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case showSub:
				fmt.Println(app.Services.Configs.Subscription(cfg))
			default:
				w := table()
				fmt.Fprintln(w, "NODE\tINBOUND\tURL")
				for _, u := range cfg.URLs {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.NodeName, u.InboundName, u.URL)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				sb, err := app.Services.Configs.Singbox(cfg)
				if err != nil {
					return fmt.Errorf("malformed singbox config in artifact: %w", err)
				}
				if proxies := sb.ProxyOutbounds(); len(proxies) > 0 {
					fmt.Println()
					w = table()
					fmt.Fprintln(w, "OUTBOUND\tTYPE\tSERVER")
					for _, o := range proxies {
						fmt.Fprintf(w, "%s\t%s\t%s:%d\n", o.Tag, o.Type, o.Server, o.ServerPort)
					}
					if err := w.Flush(); err != nil {
						return err
					}
				}
			}
			if qrOut != "" {
				for i, u := range cfg.URLs {
					png, err := app.Services.Configs.QRCode(u.URL)
					if err != nil {
						return err
					}
					name := fmt.Sprintf("%s-%s-%s.png", qrOut, u.NodeName, u.InboundName)
					if err := os.WriteFile(name, png, 0o644); err != nil {
						return err
					}
					fmt.Printf("wrote %s (%d/%d)\n", name, i+1, len(cfg.URLs))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSingbox, "singbox", false, "print the sing-box client config JSON")
	cmd.Flags().BoolVar(&showSub, "subscription", false, "print the base64 subscription blob")
	cmd.Flags().StringVar(&qrOut, "qr", "", "write QR PNGs with this filename prefix")
	return cmd
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad id %q", arg)
	}
	return uint(id), nil
}
