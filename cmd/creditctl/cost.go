package main

import (
	"fmt"
	"strconv"

	"github.com/pixelmuse/server/internal/module/pricing"
	"github.com/spf13/cobra"
)

func newCostCmd() *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "cost <model> <resolution> <mode> [batch]",
		Short: "Print the credit cost of a generation request",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := 1
			if len(args) == 4 {
				n, err := strconv.Atoi(args[3])
				if err != nil {
					return fmt.Errorf("batch must be an integer: %w", err)
				}
				batch = n
			}

			model, resolution := pricing.Model(args[0]), pricing.ParseResolution(args[1])
			if normalize {
				var err error
				if resolution, err = pricing.NormalizeResolution(model, resolution); err != nil {
					return err
				}
			}

			cost, err := pricing.CreditCost(model, resolution, pricing.Mode(args[2]), batch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cost)
			return nil
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "fall back to the model's default resolution when unsupported")
	return cmd
}
