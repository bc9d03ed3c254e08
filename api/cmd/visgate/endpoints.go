package visgate

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/visgate/visgate/api/pkg/config"
	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/types"
)

// endpoints list shows the serverless endpoints on the RunPod account,
// including gateway-owned ones (visgate- prefix).
func newEndpointsCmd() *cobra.Command {
	endpointsCmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Inspect serverless endpoints on the RunPod account",
	}
	endpointsCmd.AddCommand(newEndpointsListCmd())
	return endpointsCmd
}

func newEndpointsListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List serverless endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			apiKey := os.Getenv("RUNPOD_API_KEY")
			if apiKey == "" {
				return types.NewValidationError("RUNPOD_API_KEY is required")
			}
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}

			runpod := provider.NewRunPod(provider.RunPodOptions{GraphQLURL: cfg.RunPod.GraphQLURL})
			endpoints, err := runpod.ListEndpoints(cmd.Context(), apiKey)
			if err != nil {
				return types.NewAPIError(types.ErrorKindProvider, "listing endpoints: %s", err.Error())
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tRUN URL")
			for _, ep := range endpoints {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ep.ID, ep.Name, ep.URL)
			}
			return w.Flush()
		},
	}
	return listCmd
}
