package cli

import (
	"os"

	"bmi/internal/adapter/console"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var promptQuiet bool

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Ask for height and weight and print the BMI",
	Long: `Ask for a first and last name, a height in meters and a weight in
kilograms, then print the BMI. Questions are not shown when stdin is not a
terminal, so answers can be piped in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		quiet := promptQuiet
		if !cmd.Flags().Changed("quiet") && cmd.InOrStdin() == os.Stdin {
			quiet = !term.IsTerminal(int(os.Stdin.Fd()))
		}
		_, err := console.New(cmd.InOrStdin(), cmd.OutOrStdout()).Quiet(quiet).Run()
		return err
	},
}

func init() {
	promptCmd.Flags().BoolVarP(&promptQuiet, "quiet", "q", false, "print only the result line")
	rootCmd.AddCommand(promptCmd)
}
