package main

import (
	"fmt"
	"io"
	"manifest-service/internal/adapters/lock"
	"manifest-service/internal/adapters/render"
	"manifest-service/internal/adapters/repositories"
	"manifest-service/internal/config"
	"manifest-service/internal/platform/clock"
	"manifest-service/internal/services"
	"os"

	"github.com/spf13/cobra"
)

func newInvoiceCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Work with invoices",
	}
	cmd.AddCommand(newInvoicePDFCmd(cfg))
	return cmd
}

func newInvoicePDFCmd(cfg *config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pdf <invoice-id>",
		Short: "Render an invoice as PDF",
		Example: `  manifestctl invoice pdf 6f1c... -o INV-20260302-0001.pdf
  manifestctl invoice pdf 6f1c... > invoice.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tariff, err := config.LoadTariff(cfg.TariffPath)
			if err != nil {
				return err
			}
			conn, dialect, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			store := repositories.NewSQLStore(conn, dialect)
			svc := services.NewInvoiceService(store, lock.NewMemoryLocker(cfg.LockWait), clock.Real(), tariff, nil)

			doc, err := svc.Document(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %q: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return render.InvoicePDF(w, doc)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}
