package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rug-estimator/internal/export"
	"github.com/sells-group/rug-estimator/internal/store"
)

var (
	exportFormat string
	exportOutput string
	exportStaff  bool
)

var exportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export a saved estimate to CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("format") {
			cfg.Export.Format = exportFormat
		} else if exportOutput != "" {
			if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(exportOutput)), "."); ext == "csv" || ext == "xlsx" {
				cfg.Export.Format = ext
			}
		}
		if cmd.Flags().Changed("staff") {
			cfg.Export.Staff = exportStaff
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return exportEstimate(ctx, st, args[0], cfg.Export.Format, exportOutput, export.Options{Staff: cfg.Export.Staff})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx (default from config or output extension)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output path (default <id>.<format>)")
	exportCmd.Flags().BoolVar(&exportStaff, "staff", false, "include staff-only risk columns")
	rootCmd.AddCommand(exportCmd)
}

func exportEstimate(ctx context.Context, st store.Store, id, format, output string, opts export.Options) error {
	est, err := st.GetEstimate(ctx, id)
	if err != nil {
		return err
	}
	if output == "" {
		output = id + "." + format
	}

	f, err := os.Create(output)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", output)
	}
	defer f.Close() //nolint:errcheck

	switch format {
	case "csv":
		err = export.WriteCSV(f, est, opts)
	case "xlsx":
		err = export.WriteXLSX(f, est, opts)
	default:
		err = eris.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		return err
	}

	zap.L().Info("estimate exported",
		zap.String("id", id),
		zap.String("format", format),
		zap.String("path", output),
		zap.Bool("staff", opts.Staff),
	)
	return eris.Wrap(f.Close(), "export: close")
}
