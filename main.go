package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdexport "task-dashboard/command/export"
	cmdsummary "task-dashboard/command/summary"
	cmdweb "task-dashboard/command/web"
	"task-dashboard/connectors/config"
	"task-dashboard/domain/dashboard"
)

// Project task dashboard.
// Usage:
//   task-dashboard web [--addr :8080] [--data data/project_data.csv] [--watch]
//   task-dashboard summary [--status ...] [--owner ...] [--priority ...] [--json]
//   task-dashboard export [--out dados_filtrados_projetos.csv] [filters]
// ENV: CONFIG_PATH points to a YAML config file (default ./config.yml); DATA_FILE,
// LISTEN_ADDR, REMOTE_TOKEN and LOG_LEVEL override it. A .env file is read first.

var (
	cfg *config.Config

	dataFlag     string
	logLevelFlag string
	addrFlag     string
	watchFlag    bool
	jsonFlag     bool
	outFlag      string

	statusFlag   []string
	ownerFlag    []string
	priorityFlag []string
	sortFlag     string
	descFlag     bool
)

var rootCmd = &cobra.Command{
	Use:               "task-dashboard",
	Short:             "Interactive dashboard over a project task CSV",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the dashboard over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Web.Addr = addrFlag
		}
		if cmd.Flags().Changed("watch") {
			cfg.Data.Watch = watchFlag
		}
		return cmdweb.Run(cmd.Context(), cfg)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print metrics and breakdowns for the filtered tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdsummary.Run(cmd.Context(), cfg, cmdsummary.Options{Query: queryFromFlags(cmd), JSON: jsonFlag}, cmd.OutOrStdout())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered tasks as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdexport.Run(cmd.Context(), cfg, queryFromFlags(cmd), outFlag, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataFlag, "data", "", "CSV data file path or http(s) URL")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error")

	webCmd.Flags().StringVar(&addrFlag, "addr", config.DefaultAddr, "listen address")
	webCmd.Flags().BoolVar(&watchFlag, "watch", false, "reload when the data file changes")

	for _, c := range []*cobra.Command{summaryCmd, exportCmd} {
		c.Flags().StringSliceVar(&statusFlag, "status", nil, "allowed Status values (default all)")
		c.Flags().StringSliceVar(&ownerFlag, "owner", nil, "allowed Responsavel values (default all)")
		c.Flags().StringSliceVar(&priorityFlag, "priority", nil, "allowed Prioridade values (default all)")
		c.Flags().StringVar(&sortFlag, "sort", "", "column to order rows by")
		c.Flags().BoolVar(&descFlag, "desc", false, "descending order")
	}
	summaryCmd.Flags().BoolVar(&jsonFlag, "json", false, "print JSON instead of text")
	exportCmd.Flags().StringVarP(&outFlag, "out", "o", "", "output file, - for stdout (default dados_filtrados_projetos.csv)")

	rootCmd.AddCommand(webCmd, summaryCmd, exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	c, err := config.Load(config.PathFromEnv())
	if err != nil {
		return err
	}
	if dataFlag != "" {
		c.Data.Path = dataFlag
	}
	if logLevelFlag != "" {
		c.Log.Level = logLevelFlag
	}
	cfg = c

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.SlogLevel(c)})
	slog.SetDefault(slog.New(h))
	return nil
}

// queryFromFlags leaves unset filter flags nil so they allow every value. A flag given
// as --owner= allows nothing; --owner=,Ana allows blank owners and Ana.
func queryFromFlags(cmd *cobra.Command) dashboard.Query {
	pick := func(name string, vals []string) []string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return append([]string{}, vals...)
	}
	return dashboard.Query{
		Selection: dashboard.Selection{
			Status:   pick("status", statusFlag),
			Owner:    pick("owner", ownerFlag),
			Priority: pick("priority", priorityFlag),
		},
		SortColumn: sortFlag,
		Desc:       descFlag,
	}
}
