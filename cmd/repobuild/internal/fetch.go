package internal

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vandevoorde/repobuild/distsource"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Prefetch every configured external source tree",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	in, err := loadInput()
	if err != nil {
		return err
	}
	return distsource.New(in).FetchAll(context.Background())
}
