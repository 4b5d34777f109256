package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliOptions holds the driver's flag surface. Plain
// fields rather than a functional-options struct: this one is populated
// directly by pflag, not composed programmatically like the library
// packages' Option types.
type cliOptions struct {
	inputFile            string
	outputFile           string
	largestSupportSet    int
	largestBDDSize       int
	maxClauseTreeSize    int
	timeoutSeconds       int
	verbosity            string
	runMusTool           bool
	computeExactUsingBdd bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           "qbfproj",
		Short:         "Project the innermost existential block out of a QBF",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(opts)
		},
	}

	addFlags(cmd.Flags(), opts)
	cmd.MarkFlagRequired("inputFile")

	return cmd
}

func addFlags(flags *pflag.FlagSet, opts *cliOptions) {
	flags.StringVar(&opts.inputFile, "inputFile", "", "QDIMACS or BLIF input file (required)")
	flags.StringVar(&opts.outputFile, "outputFile", "stdout", "output path, or \"stdout\"")
	flags.IntVar(&opts.largestSupportSet, "largestSupportSet", 0, "merge support-set budget; 0 means unbounded")
	flags.IntVar(&opts.largestBDDSize, "largestBddSize", 0, "BDD node-count budget (merge and --computeExactUsingBdd); 0 means unbounded")
	flags.IntVar(&opts.maxClauseTreeSize, "maxClauseTreeSize", 10000, "resolution-tree node budget for the CNF-level eliminator")
	flags.IntVar(&opts.timeoutSeconds, "timeoutSeconds", 0, "advisory wall-clock deadline for the CNF-level eliminator; 0 disables it")
	flags.StringVar(&opts.verbosity, "verbosity", "QUIET", "QUIET|ERROR|WARNING|INFO|DEBUG")
	flags.BoolVar(&opts.runMusTool, "runMusTool", false, "strengthen the over-approximation with the MUC refinement loop")
	flags.BoolVar(&opts.computeExactUsingBdd, "computeExactUsingBdd", false, "compute the exact projection directly via AndExistsMulti")
}
