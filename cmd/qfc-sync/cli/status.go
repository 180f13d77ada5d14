package cli

import (
	"encoding/json"
	"fmt"

	"github.com/davarch/qfc-sync/internal/infrastructure/qfc_http"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var statusOpts cloudFlags

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the server status endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		statusOpts.apply(cmd, &cfg.Cloud)
		if err := cfg.Validate(); err != nil {
			return err
		}
		v, err := qfc_http.New(clientOptions(cfg, afero.NewOsFs())).ServerStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("QFieldCloud status: %w", err)
		}

		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	statusOpts.bind(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
