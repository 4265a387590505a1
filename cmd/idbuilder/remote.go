package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ceyewan/idbuilder/client"
)

func newIncrementCmd(flags *globalFlags) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "increment <key>",
		Short: "Request auto-increment IDs from the IDBuilder service.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, flags, func(c *client.Client) error {
				ids, err := c.Increment(args[0]).Generate(cmd.Context(), count)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, fmt.Sprintf("number of IDs to generate (1-%d)", client.MaxBatchSize))
	return cmd
}

func newFormattedCmd(flags *globalFlags) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "formatted <key>",
		Short: "Request formatted string IDs from the IDBuilder service.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, flags, func(c *client.Client) error {
				ids, err := c.Formatted(args[0]).Generate(cmd.Context(), count)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, fmt.Sprintf("number of IDs to generate (1-%d)", client.MaxBatchSize))
	return cmd
}

func withClient(cmd *cobra.Command, flags *globalFlags, fn func(*client.Client) error) error {
	a, err := newApp(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client()
	if err != nil {
		return err
	}
	return fn(c)
}
