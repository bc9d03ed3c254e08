package visgate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/types"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "visgate",
		Short: "visgate",
		Long:  `Async deployment gateway for diffusion models on serverless GPUs`,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTemplateCmd())
	rootCmd.AddCommand(newEndpointsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func Execute() {
	rootCmd := NewRootCmd()
	rootCmd.SetContext(context.Background())
	rootCmd.SetOutput(os.Stdout)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}

// exitCode maps a failure onto the CLI taxonomy: 0 ok, 1 usage, 2
// validation, 3 provider failure, 4 timeout.
func exitCode(err error) int {
	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case types.ErrorKindValidation:
			return 2
		case types.ErrorKindProvider, types.ErrorKindInsufficientGPU:
			return 3
		case types.ErrorKindTimeout:
			return 4
		}
	}
	if provider.IsCapacity(err) {
		return 3
	}
	return 1
}
