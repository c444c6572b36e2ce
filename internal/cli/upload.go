package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depgraph/pkg/config"
	"github.com/matzehuels/depgraph/pkg/errors"
	"github.com/matzehuels/depgraph/pkg/snapshot"
	"github.com/matzehuels/depgraph/pkg/upload"
)

func (c *CLI) uploadCommand() *cobra.Command {
	var repository string

	cmd := &cobra.Command{
		Use:   "upload <snapshot.json>",
		Short: "Submit a snapshot to the GitHub dependency graph",
		Long: `Submit a previously written snapshot to
{api}/repos/{owner}/{repo}/dependency-graph/snapshots.

The token is read from ` + config.EnvToken + ` and the repository from ` + config.EnvRepository + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if repository != "" {
				cfg.GitHub.Repository = repository
			}
			if err := cfg.ValidateUpload(); err != nil {
				return err
			}
			s, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			return c.submit(cmd.Context(), cfg, s)
		},
	}

	cmd.Flags().StringVar(&repository, "repo", "", "target repository as owner/repo (overrides "+config.EnvRepository+")")
	return cmd
}

// submit uploads s with the configured credentials.
func (c *CLI) submit(ctx context.Context, cfg *config.Config, s *snapshot.Snapshot) error {
	logger := loggerFromContext(ctx)
	owner, repo, err := upload.ParseRepoRef(cfg.GitHub.Repository)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", config.EnvRepository)
	}
	client := upload.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token, upload.WithLogger(logger))

	spinner := newSpinner(ctx, fmt.Sprintf("Submitting %d manifests to %s/%s...", len(s.Manifests), owner, repo))
	spinner.Start()
	res, err := client.Submit(ctx, owner, repo, s)
	if err != nil {
		spinner.StopWithError("Submission failed: " + errors.UserMessage(err))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Submitted snapshot %s", StyleNumber.Render(fmt.Sprint(res.ID))))
	printKeyValue("Result", res.Result)
	if res.Message != "" {
		printKeyValue("Message", res.Message)
	}
	if res.RequestID != "" {
		printKeyValue("Request", res.RequestID)
	}
	if res.Result != "" && res.Result != "SUCCESS" && res.Result != "ACCEPTED" {
		printWarning("GitHub reported %s", res.Result)
	}
	return nil
}
