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

// template commands manage the RunPod serverless template that every
// endpoint is created from. Run once per RunPod account; the resulting id
// goes into RUNPOD_TEMPLATE_ID.
func newTemplateCmd() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Manage RunPod serverless templates",
	}
	templateCmd.AddCommand(newTemplateCreateCmd())
	templateCmd.AddCommand(newTemplateListCmd())
	return templateCmd
}

func newTemplateCreateCmd() *cobra.Command {
	var (
		name            string
		image           string
		containerDiskGB int
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register the inference worker image as a serverless template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			apiKey := os.Getenv("RUNPOD_API_KEY")
			if apiKey == "" {
				return types.NewValidationError("RUNPOD_API_KEY is required")
			}
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}
			if image == "" {
				image = cfg.RunPod.DockerImage
			}

			runpod := provider.NewRunPod(provider.RunPodOptions{GraphQLURL: cfg.RunPod.GraphQLURL})
			template, err := runpod.CreateTemplate(cmd.Context(), apiKey, name, image, containerDiskGB)
			if err != nil {
				return types.NewAPIError(types.ErrorKindProvider, "creating template: %s", err.Error())
			}

			fmt.Printf("created template %s (%s)\n", template.ID, template.Name)
			fmt.Printf("export RUNPOD_TEMPLATE_ID=%s\n", template.ID)
			return nil
		},
	}

	createCmd.Flags().StringVar(&name, "name", "visgate-inference", "Template name")
	createCmd.Flags().StringVar(&image, "image", "", "Worker image (defaults to DOCKER_IMAGE)")
	createCmd.Flags().IntVar(&containerDiskGB, "container-disk-gb", 50, "Container disk size in GB")

	return createCmd
}

func newTemplateListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List serverless templates on the RunPod account",
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
			templates, err := runpod.ListTemplates(cmd.Context(), apiKey)
			if err != nil {
				return types.NewAPIError(types.ErrorKindProvider, "listing templates: %s", err.Error())
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tIMAGE\tSERVERLESS")
			for _, t := range templates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", t.ID, t.Name, t.ImageName, t.IsServerless)
			}
			return w.Flush()
		},
	}
	return listCmd
}
