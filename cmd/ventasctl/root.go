package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"andicblue/backend/internal/bootstrap"
	"andicblue/backend/internal/logging"
	"andicblue/backend/internal/service"
)

type app struct {
	open     opener
	jsonOut  bool
	logLevel string

	logger  *zap.Logger
	svc     *service.Service
	closers bootstrap.Closers
	printer *message.Printer
}

// newRootCmd builds the command tree. The returned release func closes
// whatever the command opened and must run after Execute, including when
// Execute fails.
func newRootCmd(open opener) (*cobra.Command, func()) {
	a := &app{open: open, printer: newPrinter()}

	cmd := &cobra.Command{
		Use:           "ventasctl",
		Short:         "Operate the AndicBlue ventas ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New("console", a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logger

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			svc, closers, err := a.open(ctx, logger)
			a.closers = closers
			if err != nil {
				return err
			}
			a.svc = svc
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		a.productsCmd(),
		a.customersCmd(),
		a.ordersCmd(),
		a.inventoryCmd(),
		a.cashCmd(),
		a.expensesCmd(),
		a.reportCmd(),
	)
	return cmd, a.release
}

func (a *app) release() {
	if a.logger == nil {
		return
	}
	a.closers.Close(a.logger)
	a.closers = nil
	_ = a.logger.Sync()
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.MustParse("es-CO"))
}

// cop formats an amount of Colombian pesos with dot thousands separators.
func (a *app) cop(amount int64) string {
	return a.printer.Sprintf("$%d", amount)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// render prints payload as JSON with --json, otherwise as a table.
func (a *app) render(cmd *cobra.Command, payload any, headers []string, rows [][]string) error {
	out := cmd.OutOrStdout()
	if a.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(out, t.Render())
	return err
}

// warn surfaces persistence warnings; the operation itself succeeded.
func (a *app) warn(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
}
