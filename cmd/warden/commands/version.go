package commands

import (
	"fmt"
	"runtime"

	"github.com/mhalvard/warden/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of warden",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("warden %s %s/%s\n", version.Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
