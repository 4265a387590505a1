package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ceyewan/idbuilder/idgen"
	"github.com/ceyewan/idbuilder/xerrors"
)

func newSnowflakeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snowflake",
		Short: "Generate or decompose snowflake IDs locally.",
	}
	cmd.AddCommand(newSnowflakeNextCmd(flags), newSnowflakeDecomposeCmd(flags))
	return cmd
}

func newSnowflakeNextCmd(flags *globalFlags) *cobra.Command {
	var (
		count      int
		fromServer string
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Generate snowflake IDs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return xerrors.WithCode(xerrors.Wrapf(xerrors.ErrInvalidInput, "count %d must be positive", count), "count_invalid")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			gen, err := generator(cmd, a, fromServer)
			if err != nil {
				return err
			}

			ids, err := gen.NextIDs(count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of IDs to generate")
	cmd.Flags().StringVar(&fromServer, "from-server", "", "fetch the layout for this key from the IDBuilder service")
	return cmd
}

func newSnowflakeDecomposeCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON     bool
		fromServer string
	)

	cmd := &cobra.Command{
		Use:   "decompose <id>...",
		Short: "Split snowflake IDs into timestamp, worker id and sequence.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return xerrors.WithCode(xerrors.Wrapf(xerrors.ErrInvalidInput, "id %q", arg), "id_invalid")
				}
				ids = append(ids, id)
			}

			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			layout, err := a.layout(cmd.Context(), fromServer)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				parts := layout.Parts(id)
				if asJSON {
					if err := json.NewEncoder(out).Encode(parts); err != nil {
						return xerrors.Wrap(err, "encode parts")
					}
					continue
				}
				fmt.Fprintf(out, "id=%d timestamp_offset=%d worker_id=%d sequence=%d time=%s\n",
					parts.ID, parts.TimestampOffset, parts.WorkerID, parts.Sequence,
					parts.Time.UTC().Format(time.RFC3339Nano))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per id")
	cmd.Flags().StringVar(&fromServer, "from-server", "", "fetch the layout for this key from the IDBuilder service")
	return cmd
}

// generator 根据 --from-server 选择远程参数或本地配置
func generator(cmd *cobra.Command, a *app, key string) (idgen.Generator, error) {
	if key != "" {
		return a.remoteGenerator(cmd.Context(), key)
	}
	return a.localGenerator(cmd.Context())
}
