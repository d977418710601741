package main

import (
	"encoding/json"
	"fmt"
	"io"

	"ai-relay-bot/pkg/intent"

	"github.com/spf13/cobra"
)

type parseOutput struct {
	Decision intent.Decision `json:"decision"`
	FellBack bool            `json:"fell_back"`
	Reason   string          `json:"reason,omitempty"`
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Parse a raw model completion from stdin and print the decision as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			result := intent.Parse(string(raw))
			out := parseOutput{Decision: result.Decision, FellBack: result.FellBack}
			if result.Err != nil {
				out.Reason = result.Err.Error()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
