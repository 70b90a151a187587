package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sydologie/diapoai/internal/adapters/secondary/generation"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

var (
	// Fetch command flags
	fetchStatusURL string
	fetchOutput    string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <job-id>",
	Short: "Wait for a generation job and save its slides",
	Long: `Poll the generation service until the job finishes, then write the slides
HTML it produced. The status endpoint is GET {status-url}/{job-id}.

Example:
  diapoai fetch 6f1c2e -o slides.html
  diapoai fetch 6f1c2e --status-url https://api.example.com/jobs`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchStatusURL, "status-url", "", "Job status endpoint (overrides config)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Write the slides to a file instead of standard output")
}

func runFetch(cmd *cobra.Command, args []string) error {
	jobID := strings.TrimSpace(args[0])
	if jobID == "" {
		return errors.New("job id is required")
	}

	a, err := newApp(cmd, fetchOutput, map[string]interface{}{"status-url": fetchStatusURL})
	if err != nil {
		return err
	}
	defer a.close()

	if a.config.Generation.StatusURL == "" {
		return errors.New("no status URL: set generation.status_url or --status-url")
	}

	client := ports.NewRealHTTPClient(ports.HTTPClientConfig{
		Timeout:   a.config.Generation.GetTimeout(),
		UserAgent: "diapoai/" + Version,
	})
	source := generation.NewHTTPStatusSource(client, a.config.Generation.StatusURL)
	poller := generation.NewPoller(source, a.clock, a.config.Generation.GetPollInterval(), a.logger.Named("generation"))
	defer poller.Close()

	a.logger.Info("Waiting for generation job %s", jobID)
	status, err := poller.Wait(cmd.Context(), jobID)
	if err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}
	if strings.TrimSpace(status.Result) == "" {
		return fmt.Errorf("job %s finished without slides", jobID)
	}

	if fetchOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), status.Result)
		return err
	}
	if err := os.WriteFile(fetchOutput, []byte(status.Result), 0o600); err != nil {
		return fmt.Errorf("writing slides: %w", err)
	}
	a.logger.Success("Saved slides of job %s to %s", jobID, fetchOutput)
	return nil
}
