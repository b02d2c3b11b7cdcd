package internal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vandevoorde/repobuild/distsource"
	"github.com/vandevoorde/repobuild/generator"
)

var depsCmd = &cobra.Command{
	Use:   "deps //dir:target",
	Short: "Print a target's transitive dependencies in dependency order",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	targets, err := parseTargets(args)
	if err != nil {
		return err
	}
	in, err := loadInput()
	if err != nil {
		return err
	}

	gen := generator.New(in, generator.Options{Source: distsource.New(in)})
	if err := gen.Load(context.Background(), targets); err != nil {
		return err
	}
	deps, err := gen.Deps(targets[0])
	if err != nil {
		return err
	}
	for _, dep := range deps {
		fmt.Println(dep)
	}
	return nil
}
