package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/davarch/qfc-sync/internal/infrastructure/qfc_http"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	projectsOpts cloudFlags
	projectsJSON bool
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List remote projects visible to the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		projectsOpts.apply(cmd, &cfg.Cloud)
		if err := cfg.Validate(); err != nil {
			return err
		}
		sess, _, err := newSessionEstablisher(cfg, log).Establish(cmd.Context(), cfg.Cloud.URL, credentials(cfg.Cloud))
		if err != nil {
			return err
		}

		opts := clientOptions(cfg, afero.NewOsFs())
		opts.Token = sess.Token
		items, err := qfc_http.New(opts).ListProjects(cmd.Context())
		if err != nil {
			return err
		}

		if projectsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Owner != items[j].Owner {
				return items[i].Owner < items[j].Owner
			}
			return items[i].Name < items[j].Name
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "OWNER\tNAME\tID")
		for _, p := range items {
			owner := p.Owner
			if owner == "" {
				owner = "(unknown)"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", owner, p.Name, p.ID)
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	projectsOpts.bind(projectsCmd)
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(projectsCmd)
}
