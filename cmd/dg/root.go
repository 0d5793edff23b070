package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/backend"
	"github.com/dealgrid/dealgrid/internal/config"
	"github.com/dealgrid/dealgrid/internal/crm"
	"github.com/dealgrid/dealgrid/internal/token"
)

// app carries the lazily assembled process state shared by all commands.
type app struct {
	version   string
	buildDate string

	verbose bool
	lenient bool

	cfg    config.Config
	log    *zap.Logger
	tokens *token.Store
	be     backend.Backend
}

func newRootCmd(version, buildDate string) *cobra.Command {
	a := &app{version: version, buildDate: buildDate}

	root := &cobra.Command{
		Use:           "dg",
		Short:         "Dealgrid CRM client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().String("backend", "", `override the configured backend ("rest" or "postgres")`)
	root.PersistentFlags().String("api-url", "", "override the hosted API base URL")
	root.PersistentFlags().BoolVar(&a.lenient, "lenient", false, "substitute empty dashboard years on fetch failure")
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) { a.shutdown() }

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newClientsCmd(a),
		newDealsCmd(a),
		newTasksCmd(a),
		newFinanceCmd(a),
		newDashboardCmd(a),
		newRefdataCmd(a),
		newTenantCmd(a),
		newDocsCmd(a),
		newAdminCmd(a),
		newVersionCmd(version, buildDate),
	)
	return root
}

// ensure loads configuration, the logger and the token store once.
func (a *app) ensure(cmd *cobra.Command) error {
	if a.log != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
	}
	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		cfg.BaseURL = v
	}
	if cmd.Flags().Changed("lenient") {
		cfg.Lenient = a.lenient
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = newLogger(a.verbose)
	a.tokens = token.NewFileStore(token.DefaultDirs(cfg.TokenDir))
	return nil
}

// open assembles the configured backend once per invocation.
func (a *app) open(cmd *cobra.Command) (backend.Backend, error) {
	if err := a.ensure(cmd); err != nil {
		return nil, err
	}
	if a.be != nil {
		return a.be, nil
	}
	be, err := crm.Open(cmd.Context(), a.cfg, a.log,
		crm.WithTokenStore(a.tokens),
		crm.WithSessionExpiredHook(func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "session expired, run 'dg login' again")
		}),
	)
	if err != nil {
		return nil, err
	}
	a.be = be
	return be, nil
}

func (a *app) shutdown() {
	if a.be != nil {
		_ = a.be.Close()
		a.be = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		log, _ := zap.NewDevelopment()
		return log
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	log, _ := cfg.Build()
	return log
}
