package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vandevoorde/repobuild/distsource"
	"github.com/vandevoorde/repobuild/generator"
)

var genOutput string

var genCmd = &cobra.Command{
	Use:   "gen //dir:target ...",
	Short: "Generate the Makefile for the requested targets",
	Long: `Gen resolves the requested targets' transitive dependency graph and
writes a Makefile covering every reachable target. Missing external
source trees listed in the workspace config are fetched on demand.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGen,
}

func init() {
	genCmd.Flags().StringVarP(&genOutput, "output", "o", "Makefile", "output file path")
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	targets, err := parseTargets(args)
	if err != nil {
		return err
	}
	in, err := loadInput()
	if err != nil {
		return err
	}

	ctx := context.Background()
	gen := generator.New(in, generator.Options{Source: distsource.New(in)})
	if err := gen.Load(ctx, targets); err != nil {
		return err
	}
	if err := gen.WriteFile(genOutput); err != nil {
		return err
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "wrote %s\n", genOutput)
	}
	return nil
}
