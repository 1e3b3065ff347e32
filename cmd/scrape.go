package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-radar/internal/job"
	"github.com/sells-group/lead-radar/internal/model"
)

var (
	scrapeCity     string
	scrapeCategory string
	scrapeLimit    int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape job in the foreground",
	Long:  "Runs a job for one city and prints its summary. Without --category the default categories are swept. Ctrl-C cancels the job; the partial results are kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := env.Service.StartJob(ctx, job.StartRequest{
			City:     scrapeCity,
			Category: scrapeCategory,
			Limit:    scrapeLimit,
		})
		if err != nil {
			return eris.Wrap(err, "start job")
		}
		fmt.Fprintf(os.Stdout, "Job %s started\n", id)

		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-sigCtx.Done()
			if ctx.Err() == nil && env.Service.CancelJob(id) {
				zap.L().Info("cancelling job", zap.String("job_id", id))
			}
		}()

		if err := env.Service.Wait(ctx, id); err != nil {
			return eris.Wrap(err, "wait for job")
		}

		j, err := env.Store.GetJob(ctx, id)
		if err != nil {
			return eris.Wrap(err, "read job")
		}
		formatJobDetail(os.Stdout, j)
		if j.Status == model.JobStatusFailed {
			return eris.Errorf("job %s failed", truncateID(id))
		}
		return nil
	},
}

// formatJobDetail prints a job summary followed by its recorded errors.
func formatJobDetail(w io.Writer, j *model.Job) {
	fmt.Fprintf(w, "ID:        %s\n", j.ID)
	fmt.Fprintf(w, "Status:    %s\n", j.Status)
	fmt.Fprintf(w, "City:      %s\n", j.City)
	fmt.Fprintf(w, "Category:  %s\n", j.Category)
	fmt.Fprintf(w, "Found:     %d\n", j.TotalFound)
	fmt.Fprintf(w, "Saved:     %d\n", j.TotalSaved)
	fmt.Fprintf(w, "Started:   %s\n", j.StartedAt.Format("2006-01-02 15:04:05"))
	if j.FinishedAt != nil {
		fmt.Fprintf(w, "Finished:  %s (%s)\n", j.FinishedAt.Format("2006-01-02 15:04:05"),
			j.FinishedAt.Sub(j.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(w, "Errors:    %d\n", j.ErrorsCount)
	for _, e := range j.Errors {
		if e.Business != "" {
			fmt.Fprintf(w, "  - [%s] %s\n", e.Business, e.Message)
		} else {
			fmt.Fprintf(w, "  - %s\n", e.Message)
		}
	}
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeCity, "city", "", "city to search (required)")
	scrapeCmd.Flags().StringVar(&scrapeCategory, "category", "", "business category (default: sweep all categories)")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 20, "maximum leads to save")
	_ = scrapeCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(scrapeCmd)
}
