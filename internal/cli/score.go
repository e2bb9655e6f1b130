package cli

import (
	"fmt"

	"github.com/dalemusser/charityhub/internal/domain/priority"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	f := scoreCmd.Flags()
	f.Float64("income", 0, "Beneficiary monthly income")
	f.Float64("spouse-income", 0, "Spouse monthly income")
	f.Float64("rent", 0, "Monthly rental cost")
	f.Int("family", 1, "Family members")
	f.String("marital", "single", "Marital status: single, married, widowed, divorced")
	f.Bool("sick", false, "Beneficiary is sick")
	f.Bool("spouse-sick", false, "Spouse is sick")
	f.Int("sick-children", 0, "Sick unmarried children (counted only when single)")
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the priority for a household profile",
	Long: `Compute the 1-10 priority a beneficiary with the given profile would get.
Nothing is read from or written to the database.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	p, err := profileFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if field, reason := priority.Check(p); field != "" {
		return fmt.Errorf("%s %s", field, reason)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "priority: %d (sick members: %d)\n", priority.Score(p), priority.SickCount(p))
	return nil
}

func profileFromFlags(f *pflag.FlagSet) (priority.Profile, error) {
	var p priority.Profile
	var err error
	if p.Income, err = f.GetFloat64("income"); err != nil {
		return p, err
	}
	if p.SpouseIncome, err = f.GetFloat64("spouse-income"); err != nil {
		return p, err
	}
	if p.RentalCost, err = f.GetFloat64("rent"); err != nil {
		return p, err
	}
	if p.FamilyMembers, err = f.GetInt("family"); err != nil {
		return p, err
	}
	if p.MaritalStatus, err = f.GetString("marital"); err != nil {
		return p, err
	}
	if p.BeneficiarySick, err = f.GetBool("sick"); err != nil {
		return p, err
	}
	if p.SpouseSick, err = f.GetBool("spouse-sick"); err != nil {
		return p, err
	}
	if p.SickUnmarriedChildren, err = f.GetInt("sick-children"); err != nil {
		return p, err
	}
	return p, nil
}
