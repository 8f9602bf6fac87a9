package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/export"
	"github.com/sells-group/rug-estimator/internal/store"
)

var (
	batchDir         string
	batchConcurrency int
	batchSave        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Price every inspection file in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		var st store.Store
		if batchSave {
			var err error
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		return processBatch(ctx, estimate.NewService(st), batchDir, cfg.Batch.Concurrency, batchSave, cmd.OutOrStdout())
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of inspection or request files")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent estimates (default from config)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist every successful estimate")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// processBatch loads each file in dir, prices them concurrently and writes a
// summary table. Files that fail to load or price are reported and skipped.
func processBatch(ctx context.Context, svc *estimate.Service, dir string, concurrency int, save bool, w io.Writer) error {
	files, err := listInputFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		zap.L().Info("no inspection files found", zap.String("dir", dir))
		return nil
	}

	var (
		reqs   []estimate.Request
		failed int
	)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "REFERENCE\tSERVICES\tTOTAL\tREVIEW\tESTIMATE\tERROR"); err != nil {
		return eris.Wrap(err, "batch: write header")
	}

	for _, f := range files {
		req, err := loadRequest(f)
		if err != nil {
			failed++
			zap.L().Warn("batch: skipping file", zap.String("file", f), zap.Error(err))
			if _, werr := fmt.Fprintf(tw, "%s\t\t\t\t\t%s\n", f, err); werr != nil {
				return eris.Wrap(werr, "batch: write row")
			}
			continue
		}
		req.Persist = save
		reqs = append(reqs, req)
	}

	results, err := svc.RunBatch(ctx, reqs, concurrency)
	if err != nil {
		return eris.Wrap(err, "batch processing")
	}

	for _, r := range results {
		var row string
		if r.Err != nil {
			failed++
			row = fmt.Sprintf("%s\t\t\t\t\t%s\n", reqs[r.Index].Reference, r.Err)
		} else {
			est := r.Estimate
			row = fmt.Sprintf("%s\t%d\t%s\t%t\t%s\t\n",
				est.Reference,
				len(est.Pricing.Services),
				export.FormatMoney(est.Pricing.TotalAfterAdjustments),
				est.Determination.RequiresStaffReview,
				est.ID,
			)
		}
		if _, err := fmt.Fprint(tw, row); err != nil {
			return eris.Wrap(err, "batch: write row")
		}
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "batch: flush")
	}

	zap.L().Info("batch complete",
		zap.Int("files", len(files)),
		zap.Int("priced", len(reqs)-countErrors(results)),
		zap.Int("failed", failed),
	)
	return nil
}

func countErrors(results []estimate.BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
