package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

type identifyOutput struct {
	similarity.IdentifyResult
	Candidates []similarity.Candidate `json:"candidates,omitempty"`
}

func newIdentifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify <probe>",
		Short: "Find the best matching identity in a gallery",
		Long: `Find the best matching identity in a gallery.

Each identity is scored by its best embedding. The best identity is
reported when it reaches the threshold; otherwise the probe is unknown.
Ties go to the label that sorts first.

Examples:
  facectl identify probe.yaml --gallery gallery.yaml
  facectl identify probe.yaml --gallery gallery.yaml --threshold 0.6 --top 5`,
		Args: cobra.ExactArgs(1),
		RunE: runIdentify,
	}

	cmd.Flags().String("gallery", "", "Gallery file mapping labels to embeddings (required)")
	cmd.Flags().Float64("threshold", similarity.DefaultThreshold, "Minimum similarity accepted as a match (0-1)")
	cmd.Flags().Int("top", 0, "Also list the N best identities (0 = off)")
	_ = cmd.MarkFlagRequired("gallery")

	return cmd
}

func runIdentify(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	top := mustGetInt(cmd, "top")
	if top < 0 {
		return fmt.Errorf("--top must not be negative")
	}

	probe, err := loadEmbedding(args[0])
	if err != nil {
		return err
	}
	gallery, err := loadGallery(mustGetString(cmd, "gallery"))
	if err != nil {
		return err
	}

	result, err := similarity.Identify(probe, gallery, threshold)
	if err != nil {
		return err
	}

	out := identifyOutput{IdentifyResult: result}
	if top > 0 {
		out.Candidates, err = similarity.Rank(probe, gallery, top)
		if err != nil {
			return err
		}
	}

	if done, err := printJSON(cmd, out); done {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case result.Recognized():
		fmt.Fprintf(w, "recognized: %s (score %.4f)\n", result.Label, result.Score)
	case result.BestScore != nil:
		fmt.Fprintf(w, "unknown (best score %.4f)\n", *result.BestScore)
	default:
		fmt.Fprintln(w, "unknown (empty gallery)")
	}

	for i, c := range out.Candidates {
		fmt.Fprintf(w, "  %d. %-24s %.4f\n", i+1, c.Label, c.Score)
	}
	return nil
}
