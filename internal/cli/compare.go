package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

type compareOutput struct {
	Similarity float64 `json:"similarity"`
	Distance   float64 `json:"distance"`
}

func newCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Print the cosine similarity of two embeddings",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := loadEmbedding(args[0])
	if err != nil {
		return err
	}
	b, err := loadEmbedding(args[1])
	if err != nil {
		return err
	}

	score, err := similarity.Similarity(a, b)
	if err != nil {
		return err
	}
	distance, err := similarity.EuclideanDistance(a, b)
	if err != nil {
		return err
	}

	out := compareOutput{Similarity: score, Distance: distance}
	if done, err := printJSON(cmd, out); done {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "similarity: %.4f\n", out.Similarity)
	fmt.Fprintf(cmd.OutOrStdout(), "distance:   %.4f\n", out.Distance)
	return nil
}
