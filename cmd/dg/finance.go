package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dealgrid/dealgrid/internal/forecast"
	"github.com/dealgrid/dealgrid/internal/model"
)

func newFinanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "finance", Short: "Forecast and actual entries"}
	cmd.AddCommand(
		newFinanceYearsCmd(a),
		newFinanceYearCmd(a),
		newFinanceByClientCmd(a),
		newFinanceUpsertCmd(a),
	)
	return cmd
}

func newFinanceYearsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List years that have entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			years, err := be.Financials().Years(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), years)
		},
	}
}

func newFinanceYearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "year <year>",
		Short: "List the entries of one year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			entries, err := be.Financials().ByYear(cmd.Context(), year)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
}

func newFinanceByClientCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "by-client <clientKey>",
		Short: "List the entries of one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			entries, err := be.Financials().ByClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
}

func newFinanceUpsertCmd(a *app) *cobra.Command {
	var e model.FinancialEntry
	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Write one month of forecast/actual numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			saved, err := be.Financials().Upsert(cmd.Context(), &e)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		},
	}
	cmd.Flags().StringVar(&e.ClientID, "client", "", "client key (required)")
	cmd.Flags().StringVar(&e.ProductLineID, "line", "", "product line key (required)")
	cmd.Flags().IntVar(&e.Year, "year", 0, "financial year (required)")
	cmd.Flags().IntVar(&e.Month, "month", 0, "month 1..12 (required)")
	cmd.Flags().Float64Var(&e.Forecast, "forecast", 0, "forecast amount")
	cmd.Flags().Float64Var(&e.Actual, "actual", 0, "actual amount")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func newDashboardCmd(a *app) *cobra.Command {
	var year, from, to int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Yearly forecast/actual summaries",
		Long: `Summarizes financial entries per year: monthly totals, product-line
totals and forecast attainment. Without flags every known year is
summarized. With --lenient a year that fails to load becomes an empty
summary marked "degraded" instead of failing the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			col := forecast.NewCollector(be.Financials(), a.cfg.Lenient, a.log)
			ctx := cmd.Context()

			switch {
			case year != 0:
				s, err := col.Year(ctx, year)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			case from != 0 || to != 0:
				sums, err := col.Range(ctx, from, to)
				if err != nil {
					return err
				}
				out := struct {
					Years []forecast.YearSummary `json:"years"`
					Total forecast.MonthTotals   `json:"total"`
				}{sums, forecast.Rollup(sums)}
				return printJSON(cmd.OutOrStdout(), out)
			default:
				sums, err := col.All(ctx)
				if err != nil {
					return err
				}
				out := struct {
					Years []forecast.YearSummary `json:"years"`
					Total forecast.MonthTotals   `json:"total"`
				}{sums, forecast.Rollup(sums)}
				return printJSON(cmd.OutOrStdout(), out)
			}
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "summarize one year")
	cmd.Flags().IntVar(&from, "from", 0, "range start year")
	cmd.Flags().IntVar(&to, "to", 0, "range end year")
	return cmd
}
