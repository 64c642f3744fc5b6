package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

type verifyOutput struct {
	Match     bool    `json:"match"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
}

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <probe> <reference>",
		Short: "Decide whether two embeddings show the same person",
		Long: `Decide whether two embeddings show the same person.

The pair matches when the cosine similarity is at least the threshold.
The exit status is 0 either way; use --json to script on the result.`,
		Args: cobra.ExactArgs(2),
		RunE: runVerify,
	}

	cmd.Flags().Float64("threshold", similarity.DefaultThreshold, "Minimum similarity accepted as a match (0-1)")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")

	probe, err := loadEmbedding(args[0])
	if err != nil {
		return err
	}
	reference, err := loadEmbedding(args[1])
	if err != nil {
		return err
	}

	result, err := similarity.Verify(probe, reference, threshold)
	if err != nil {
		return err
	}

	out := verifyOutput{Match: result.IsMatch, Score: result.Score, Threshold: threshold}
	if done, err := printJSON(cmd, out); done {
		return err
	}

	verdict := "no match"
	if out.Match {
		verdict = "match"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (score %.4f, threshold %.2f)\n", verdict, out.Score, out.Threshold)
	return nil
}
