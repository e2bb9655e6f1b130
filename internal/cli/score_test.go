package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Commands are package globals; flag values survive between runs.
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no income", []string{"score", "--income", "0"}, "priority: 10"},
		{"comfortable", []string{"score", "--income", "100000", "--family", "1"}, "priority: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.args...)
			if err != nil {
				t.Fatalf("score failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
		})
	}
}

func TestScoreCommand_RejectsInvalidProfile(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"negative rent", []string{"score", "--rent", "-5"}, "rental_cost"},
		{"negative sick children", []string{"score", "--sick-children", "-1"}, "sick_unmarried_children_count"},
		{"unknown marital status", []string{"score", "--marital", "complicated"}, "marital_status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}
