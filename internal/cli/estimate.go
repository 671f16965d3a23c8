package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weaverhq/weaver/internal/token"
)

func newEstimateCmd() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "estimate [text]",
		Short: "Estimate the model-token count of a text",
		Long: `Estimate how many model tokens a text will consume, using the same
estimator the context budgeter uses.

Examples:
  weaver estimate "some prompt text"
  weaver estimate --file src/app.ts
  cat prompt.txt | weaver estimate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case fromFile != "":
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", fromFile, err)
				}
				text = string(data)
			case len(args) > 0:
				text = strings.Join(args, " ")
			default:
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			est := token.NewEstimator()
			n := est.Estimate(text)
			fmt.Printf("%d tokens (%d bytes)\n", n, len(text))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Estimate the contents of a file")
	return cmd
}
