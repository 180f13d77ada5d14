package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/davarch/qfc-sync/internal/infrastructure/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	loginOpts cloudFlags
	loginSave bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange username/email and password for an API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		loginOpts.apply(cmd, &cfg.Cloud)
		if err := cfg.Validate(); err != nil {
			return err
		}
		creds := credentials(cfg.Cloud)
		creds.Token = ""
		if creds.LoginID() == "" {
			return errors.New("login needs --username or --email")
		}

		_, res, err := newSessionEstablisher(cfg, log).Establish(cmd.Context(), cfg.Cloud.URL, creds)
		if err != nil {
			return err
		}
		if !res.Token.IsSet() {
			return errors.New("login response carried no token")
		}

		if !loginSave {
			fmt.Println(res.Token.Value())
			return nil
		}

		cfg.Cloud.Token = res.Token
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		log.Info("token saved", zap.String("config", cfgPath), zap.String("login", creds.LoginID()))
		_, _ = fmt.Fprintf(os.Stderr, "Logged in as %s; token saved to %s\n", creds.LoginID(), cfgPath)
		return nil
	},
}

func init() {
	loginOpts.bind(loginCmd)
	loginCmd.Flags().BoolVar(&loginSave, "save", false, "store the token in the config file instead of printing it")
	rootCmd.AddCommand(loginCmd)
}
