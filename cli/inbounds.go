package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/schema"
)

func newInboundsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbounds",
		Short: "Manage protocol listeners on nodes",
	}
	cmd.AddCommand(
		newInboundsListCommand(app),
		newInboundsCreateCommand(app),
		newInboundsUpdateCommand(app),
		newInboundsDeleteCommand(app),
		newInboundsGenerateKeysCommand(app),
		newInboundsDescribeCommand(),
	)
	return cmd
}

func newInboundsDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <protocol>",
		Short: "Show the field schema for a protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := schema.Fields(model.Protocol(args[0]))
			if fields == nil {
				return fmt.Errorf("unknown protocol %q", args[0])
			}
			w := table()
			fmt.Fprintln(w, "FIELD\tREQUIRED\tDEFAULT\tCONSTRAINTS")
			for _, f := range fields {
				fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", f.Name, f.Required, fieldDefault(f), fieldConstraints(f))
			}
			return w.Flush()
		},
	}
}

func fieldDefault(f schema.Field) string {
	if f.Default == nil {
		return "-"
	}
	return fmt.Sprintf("%v", f.Default)
}

func fieldConstraints(f schema.Field) string {
	switch f.Kind {
	case schema.KindInt:
		if f.Max > 0 {
			return fmt.Sprintf("%d..%d", f.Min, f.Max)
		}
		return fmt.Sprintf(">= %d", f.Min)
	case schema.KindString:
		return fmt.Sprintf("max %d chars", f.MaxLen)
	case schema.KindEnum:
		return strings.Join(f.Enum, ", ")
	}
	return ""
}

func newInboundsListCommand(app *App) *cobra.Command {
	var nodeID uint
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a node's inbounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			inbounds, err := app.Services.Inbounds.List(cmd.Context(), nodeID)
			if err != nil {
				return err
			}
			w := table()
			fmt.Fprintln(w, "ID\tNAME\tPROTOCOL\tPORT\tENABLED\tDETAILS")
			for _, in := range inbounds {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\t%s\n",
					in.ID, in.Name, in.Protocol, in.ListenPort, in.Enabled, inboundDetails(&in))
			}
			return w.Flush()
		},
	}
	cmd.Flags().UintVar(&nodeID, "node", 0, "node id")
	cmd.MarkFlagRequired("node")
	return cmd
}

func inboundDetails(in *model.Inbound) string {
	switch in.Protocol {
	case model.ProtocolReality:
		return fmt.Sprintf("sni=%s fp=%s sid=%s", in.SNI, in.Fingerprint, in.ShortID)
	case model.ProtocolWSTLS:
		return fmt.Sprintf("sni=%s path=%s", in.SNI, in.WSPath)
	case model.ProtocolHysteria2:
		return fmt.Sprintf("up=%dMbps down=%dMbps", in.UpMbps, in.DownMbps)
	}
	return ""
}

type inboundFlags struct {
	sni          string
	fallbackAddr string
	fallbackPort int
	shortID      string
	fingerprint  string
	wsPath       string
	upMbps       int
	downMbps     int
}

func (f *inboundFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sni, "sni", "", "server name to present (reality, ws-tls)")
	cmd.Flags().StringVar(&f.fallbackAddr, "fallback-addr", "127.0.0.1", "reality fallback address")
	cmd.Flags().IntVar(&f.fallbackPort, "fallback-port", 8443, "reality fallback port")
	cmd.Flags().StringVar(&f.shortID, "short-id", "", "reality short id (max 16 chars)")
	cmd.Flags().StringVar(&f.fingerprint, "fingerprint", "chrome", "uTLS fingerprint (reality)")
	cmd.Flags().StringVar(&f.wsPath, "ws-path", "/ws", "websocket path (ws-tls)")
	cmd.Flags().IntVar(&f.upMbps, "up-mbps", 100, "upload rate (hysteria2)")
	cmd.Flags().IntVar(&f.downMbps, "down-mbps", 100, "download rate (hysteria2)")
}

func newInboundsCreateCommand(app *App) *cobra.Command {
	var (
		nodeID     uint
		name       string
		protocol   string
		listenPort int
		disabled   bool
		flags      inboundFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an inbound on a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := schema.Defaults(nodeID, model.Protocol(protocol))
			in.Name = name
			in.ListenPort = listenPort
			in.Enabled = !disabled
			switch model.Protocol(protocol) {
			case model.ProtocolReality:
				in.Reality.SNI = flags.sni
				in.Reality.FallbackAddr = flags.fallbackAddr
				in.Reality.FallbackPort = flags.fallbackPort
				in.Reality.ShortID = flags.shortID
				in.Reality.Fingerprint = flags.fingerprint
			case model.ProtocolWSTLS:
				in.WSTLS.SNI = flags.sni
				in.WSTLS.WSPath = flags.wsPath
			case model.ProtocolHysteria2:
				in.Hysteria2.UpMbps = flags.upMbps
				in.Hysteria2.DownMbps = flags.downMbps
			default:
				return fmt.Errorf("unknown protocol %q", protocol)
			}
			created, err := app.Services.Inbounds.Create(cmd.Context(), &in)
			if err != nil {
				return err
			}
			fmt.Printf("created inbound %s (id %d) on node %d\n", created.Name, created.ID, created.NodeID)
			if created.Protocol == model.ProtocolReality && created.PrivateKey == "" {
				fmt.Println("hint: run `zenctl inbounds generate-keys` to issue REALITY keys")
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&nodeID, "node", 0, "node id")
	cmd.Flags().StringVar(&name, "name", "", "inbound name")
	cmd.Flags().StringVar(&protocol, "protocol", "reality", "reality, ws-tls, or hysteria2")
	cmd.Flags().IntVar(&listenPort, "port", 443, "listen port")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the inbound disabled")
	flags.register(cmd)
	cmd.MarkFlagRequired("node")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newInboundsUpdateCommand(app *App) *cobra.Command {
	var (
		nodeID     uint
		name       string
		listenPort int
		enabled    bool
		flags      inboundFlags
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an inbound (only the given flags are sent)",
		Long: "Updates an inbound. Protocol and node are immutable; protocol-specific\n" +
			"flags are only legal for the inbound's own protocol and travel as one\n" +
			"group when any of them is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := findInbound(app, cmd, nodeID, id)
			if err != nil {
				return err
			}

			upd := &schema.InboundUpdate{}
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			if cmd.Flags().Changed("port") {
				upd.ListenPort = &listenPort
			}
			if cmd.Flags().Changed("enabled") {
				upd.Enabled = &enabled
			}
			if variantFlagsChanged(cmd) {
				switch current.Protocol {
				case model.ProtocolReality:
					s := &schema.RealitySettings{
						SNI:          current.SNI,
						FallbackAddr: current.FallbackAddr,
						FallbackPort: current.FallbackPort,
						PrivateKey:   current.PrivateKey,
						PublicKey:    current.PublicKey,
						ShortID:      current.ShortID,
						Fingerprint:  current.Fingerprint,
					}
					if cmd.Flags().Changed("sni") {
						s.SNI = flags.sni
					}
					if cmd.Flags().Changed("fallback-addr") {
						s.FallbackAddr = flags.fallbackAddr
					}
					if cmd.Flags().Changed("fallback-port") {
						s.FallbackPort = flags.fallbackPort
					}
					if cmd.Flags().Changed("short-id") {
						s.ShortID = flags.shortID
					}
					if cmd.Flags().Changed("fingerprint") {
						s.Fingerprint = flags.fingerprint
					}
					upd.Reality = s
				case model.ProtocolWSTLS:
					s := &schema.WSTLSSettings{SNI: current.SNI, WSPath: current.WSPath}
					if cmd.Flags().Changed("sni") {
						s.SNI = flags.sni
					}
					if cmd.Flags().Changed("ws-path") {
						s.WSPath = flags.wsPath
					}
					upd.WSTLS = s
				case model.ProtocolHysteria2:
					s := &schema.Hysteria2Settings{UpMbps: current.UpMbps, DownMbps: current.DownMbps}
					if cmd.Flags().Changed("up-mbps") {
						s.UpMbps = flags.upMbps
					}
					if cmd.Flags().Changed("down-mbps") {
						s.DownMbps = flags.downMbps
					}
					upd.Hysteria2 = s
				}
			}

			updated, err := app.Services.Inbounds.Update(cmd.Context(), current, upd)
			if err != nil {
				return err
			}
			fmt.Printf("updated inbound %s (id %d)\n", updated.Name, updated.ID)
			return nil
		},
	}
	cmd.Flags().UintVar(&nodeID, "node", 0, "node id the inbound belongs to")
	cmd.Flags().StringVar(&name, "name", "", "inbound name")
	cmd.Flags().IntVar(&listenPort, "port", 0, "listen port")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "enabled flag")
	flags.register(cmd)
	cmd.MarkFlagRequired("node")
	return cmd
}

func variantFlagsChanged(cmd *cobra.Command) bool {
	for _, f := range []string{"sni", "fallback-addr", "fallback-port", "short-id", "fingerprint", "ws-path", "up-mbps", "down-mbps"} {
		if cmd.Flags().Changed(f) {
			return true
		}
	}
	return false
}

func findInbound(app *App, cmd *cobra.Command, nodeID, id uint) (*model.Inbound, error) {
	inbounds, err := app.Services.Inbounds.List(cmd.Context(), nodeID)
	if err != nil {
		return nil, err
	}
	for i := range inbounds {
		if inbounds[i].ID == id {
			return &inbounds[i], nil
		}
	}
	return nil, fmt.Errorf("inbound %d not found on node %d", id, nodeID)
}

func newInboundsDeleteCommand(app *App) *cobra.Command {
	var nodeID uint
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an inbound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.Services.Inbounds.Delete(cmd.Context(), id, nodeID); err != nil {
				return err
			}
			fmt.Printf("deleted inbound %d\n", id)
			return nil
		},
	}
	cmd.Flags().UintVar(&nodeID, "node", 0, "node id the inbound belongs to")
	cmd.MarkFlagRequired("node")
	return cmd
}

func newInboundsGenerateKeysCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-keys <id>",
		Short: "Issue a fresh REALITY key triple for an existing inbound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if id == 0 {
				return errors.New("inbound id required")
			}
			keys, err := app.Services.Inbounds.GenerateKeys(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("private key: %s\n", keys.PrivateKey)
			fmt.Printf("public key:  %s\n", keys.PublicKey)
			fmt.Printf("short id:    %s\n", keys.ShortID)
			return nil
		},
	}
}
