package internal

import (
	"path/filepath"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/vandevoorde/repobuild/env"
)

var (
	rootDir    string
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "repobuild",
	Short: "repobuild compiles BUILD files into a Makefile",
	Long: `repobuild reads declarative BUILD files describing targets (C/C++
libraries, shared libraries, binaries, wrapped external builds), resolves
their dependency graph, and writes a single Makefile that builds and
installs everything in the right order.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "workspace root directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default <root>/"+env.ConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

// loadInput builds the per-run environment from the global flags and
// the workspace config file.
func loadInput() (*env.Input, error) {
	cfgPath := configFile
	if cfgPath == "" {
		cfgPath = filepath.Join(rootDir, env.ConfigFile)
	}
	cfg, err := env.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return env.NewInput(rootDir, cfg)
}

// parseTargets parses workspace-absolute target references from the
// command line.
func parseTargets(args []string) ([]env.TargetInfo, error) {
	out := make([]env.TargetInfo, 0, len(args))
	for _, arg := range args {
		t, err := env.ParseTarget(arg, "")
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
