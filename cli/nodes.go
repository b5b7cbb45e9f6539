package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenvpn/zen-console/model"
)

func newNodesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Manage relay nodes",
	}
	cmd.AddCommand(
		newNodesListCommand(app),
		newNodesGetCommand(app),
		newNodesCreateCommand(app),
		newNodesUpdateCommand(app),
		newNodesDeleteCommand(app),
		newNodesStatusCommand(app),
		newNodesSyncCommand(app),
	)
	return cmd
}

func newNodesListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List nodes with liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := app.Services.Nodes.List(cmd.Context())
			if err != nil {
				return err
			}
			w := table()
			fmt.Fprintln(w, "ID\tNAME\tADDRESS\tAPI PORT\tENABLED\tSTATUS")
			for _, n := range nodes {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\t%s\n",
					n.ID, n.Name, n.Address, n.APIPort, n.Enabled,
					app.Services.Nodes.Status(n.ID))
			}
			return w.Flush()
		},
	}
}

func newNodesGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := app.Services.Nodes.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("id:       %d\n", n.ID)
			fmt.Printf("name:     %s\n", n.Name)
			fmt.Printf("address:  %s\n", n.Address)
			fmt.Printf("api port: %d\n", n.APIPort)
			fmt.Printf("enabled:  %t\n", n.Enabled)
			fmt.Printf("status:   %s\n", app.Services.Nodes.Probe(cmd.Context(), n.ID))
			return nil
		},
	}
}

func newNodesCreateCommand(app *App) *cobra.Command {
	var in model.CreateNodeInput
	var disabled bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a relay node",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Enabled = !disabled
			n, err := app.Services.Nodes.Create(cmd.Context(), &in)
			if err != nil {
				return err
			}
			fmt.Printf("created node %s (id %d)\n", n.Name, n.ID)
			fmt.Printf("api token: %s\n", in.APIToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "node name")
	cmd.Flags().StringVar(&in.Address, "address", "", "host or IP of the relay")
	cmd.Flags().IntVar(&in.APIPort, "api-port", 9090, "management agent port")
	cmd.Flags().StringVar(&in.APIToken, "api-token", "", "agent token (generated when omitted)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "register the node disabled")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("address")
	return cmd
}

func newNodesUpdateCommand(app *App) *cobra.Command {
	var (
		name, address, token string
		apiPort              int
		enabled              bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a node (only the given flags are sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := &model.UpdateNodeInput{}
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("address") {
				in.Address = &address
			}
			if cmd.Flags().Changed("api-port") {
				in.APIPort = &apiPort
			}
			if cmd.Flags().Changed("api-token") {
				in.APIToken = &token
			}
			if cmd.Flags().Changed("enabled") {
				in.Enabled = &enabled
			}
			n, err := app.Services.Nodes.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Printf("updated node %s (id %d)\n", n.Name, n.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "node name")
	cmd.Flags().StringVar(&address, "address", "", "host or IP of the relay")
	cmd.Flags().IntVar(&apiPort, "api-port", 0, "management agent port")
	cmd.Flags().StringVar(&token, "api-token", "", "agent token")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "enabled flag")
	return cmd
}

func newNodesDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a node and, by cascade, all of its inbounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.Services.Nodes.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("deleted node %d (inbounds cascade server side)\n", id)
			return nil
		},
	}
}

func newNodesStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Probe the node's management agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fmt.Println(app.Services.Nodes.Probe(cmd.Context(), id))
			return nil
		},
	}
}

func newNodesSyncCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <id>",
		Short: "Push the node's inbound set to its agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.Services.Nodes.Sync(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("node %d synced\n", id)
			return nil
		},
	}
}
