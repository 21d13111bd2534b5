package cli

import (
	"encoding/json"
	"fmt"

	"bmi/internal/adapter/console"
	"bmi/internal/app"

	"github.com/spf13/cobra"
)

var calcFlags struct {
	weight     float64
	height     float64
	weightUnit string
	heightUnit string
	asJSON     bool
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate a BMI from flags",
	Example: `  bmi calc --weight 65 --height 1.53
  bmi calc --weight 143 --weight-unit lb --height 60 --height-unit in --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc := app.NewBMIService(nil)
		reading, err := svc.CalculateIn(calcFlags.weight, calcFlags.weightUnit, calcFlags.height, calcFlags.heightUnit)
		if err != nil {
			return err
		}
		if calcFlags.asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reading)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "BMI: %s (%s)\n", console.FormatBMI(reading.BMI), reading.Category)
		return err
	},
}

func init() {
	f := calcCmd.Flags()
	f.Float64VarP(&calcFlags.weight, "weight", "w", 0, "body weight")
	f.Float64VarP(&calcFlags.height, "height", "H", 0, "body height")
	f.StringVar(&calcFlags.weightUnit, "weight-unit", "kg", "weight unit: kg or lb")
	f.StringVar(&calcFlags.heightUnit, "height-unit", "m", "height unit: m, cm or in")
	f.BoolVar(&calcFlags.asJSON, "json", false, "print the reading as JSON")
	_ = calcCmd.MarkFlagRequired("weight")
	_ = calcCmd.MarkFlagRequired("height")
	rootCmd.AddCommand(calcCmd)
}
