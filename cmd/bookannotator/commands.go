package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"BookAnnotator/internal/app"
	"BookAnnotator/internal/usecase"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the descriptions HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, ctx.logger())
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Serve(cmd.Context())
		},
	}
}

type describeOutput struct {
	DocID       int64   `json:"doc_id"`
	Description *string `json:"description"`
	Cached      bool    `json:"cached"`
	Failed      bool    `json:"failed,omitempty"`
	Generating  bool    `json:"generating,omitempty"`
}

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <doc_id>",
		Short: "Generate or read the description of one catalog record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || docID <= 0 {
				return fmt.Errorf("invalid doc_id %q", args[0])
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, ctx.logger())
			if err != nil {
				return err
			}
			defer application.Close()

			out := describeOutput{DocID: docID}
			res, err := application.Describe(cmd.Context(), docID)
			switch {
			case usecase.IsInProgress(err):
				out.Generating = true
			case err != nil:
				return err
			default:
				out.Cached = res.Cached
				out.Failed = res.Failed
				if !res.Failed {
					out.Description = &res.Description
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the descriptions ledger table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), cfg, ctx.logger())
		},
	}
}
