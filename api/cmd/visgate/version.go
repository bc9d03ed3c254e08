package visgate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visgate/visgate/api/pkg/version"
)

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(*cobra.Command, []string) {
			fmt.Println(version.Version)
		},
	}
	return versionCmd
}
