package main

import (
	"meshfixture/internal/logging"
	"meshfixture/internal/queue"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [batch]",
		Short: "Report intake progress of the planned fixture batches",
		Long: `Compares each planned batch with the fixtures on disk. Items are pending,
done, or done with a mode mismatch; mismatches are reported but never block
completion.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Named(logger, logging.CategoryStatus)

			var batches []queue.Batch
			if len(args) == 1 {
				b, err := queue.Lookup(args[0])
				if err != nil {
					return err
				}
				batches = []queue.Batch{b}
			} else {
				var err error
				if batches, err = queue.Batches(); err != nil {
					return err
				}
			}

			discovered, err := openStore().Discover()
			if err != nil {
				return err
			}

			reports := make([]*queue.Report, 0, len(batches))
			for _, b := range batches {
				r := queue.Evaluate(b, discovered)
				log.Debug("Batch evaluated",
					zap.String("batch", b.ID),
					zap.Int("completed", r.Completed),
					zap.Int("mismatches", r.Mismatches()))
				reports = append(reports, r)
			}
			return queue.RenderAll(cmd.OutOrStdout(), reports)
		},
	}
}
