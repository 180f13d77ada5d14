package cli

import (
	"time"

	"github.com/davarch/qfc-sync/internal/application"
	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/davarch/qfc-sync/internal/infrastructure/config"
	"github.com/davarch/qfc-sync/internal/infrastructure/notify_libnotify"
	"github.com/davarch/qfc-sync/internal/infrastructure/prompt"
	"github.com/davarch/qfc-sync/internal/infrastructure/qfc_http"
	"github.com/davarch/qfc-sync/internal/infrastructure/summary_fs"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cloudFlags are the connection and credential flags shared by every
// command that talks to the service.
type cloudFlags struct {
	url      string
	token    string
	username string
	email    string
	password string
}

func (f *cloudFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", config.DefaultURL, "QFieldCloud API base URL")
	cmd.Flags().StringVar(&f.token, "token", "", "API token (env QFIELDCLOUD_TOKEN)")
	cmd.Flags().StringVar(&f.username, "username", "", "login username (env QFIELDCLOUD_USERNAME)")
	cmd.Flags().StringVar(&f.email, "email", "", "login email, used when no username is set (env QFIELDCLOUD_EMAIL)")
	cmd.Flags().StringVar(&f.password, "password", "", "login password, prompted when missing (env QFIELDCLOUD_PASSWORD)")
}

func (f *cloudFlags) apply(cmd *cobra.Command, c *config.CloudConfig) {
	fl := cmd.Flags()
	if fl.Changed("url") {
		c.URL = f.url
	}
	if fl.Changed("token") {
		c.Token = domain.Secret(f.token)
	}
	if fl.Changed("username") {
		c.Username = f.username
	}
	if fl.Changed("email") {
		c.Email = f.email
	}
	if fl.Changed("password") {
		c.Password = domain.Secret(f.password)
	}
}

func credentials(c config.CloudConfig) application.Credentials {
	return application.Credentials{
		Token:    c.Token,
		Username: c.Username,
		Email:    c.Email,
		Password: c.Password,
	}
}

// syncFlags are the pipeline flags of sync and watch.
type syncFlags struct {
	cloud       cloudFlags
	projectID   string
	projectPath string
	autoCreate  bool
	waitTimeout int
	pollSeconds int
	summaryJSON string
	notify      bool
}

func (f *syncFlags) bind(cmd *cobra.Command) {
	f.cloud.bind(cmd)
	cmd.Flags().StringVar(&f.projectID, "project-id", "", "project UUID, name, owner/name or a/owner/name URL path")
	cmd.Flags().StringVar(&f.projectPath, "project-path", "", "local folder holding the .qgs/.qgz project")
	cmd.Flags().BoolVar(&f.autoCreate, "auto-create", false, "create the project when it does not exist")
	cmd.Flags().IntVar(&f.waitTimeout, "wait-timeout", 600, "seconds to wait for each server job")
	cmd.Flags().IntVar(&f.pollSeconds, "poll-seconds", 5, "seconds between job status polls")
	cmd.Flags().StringVar(&f.summaryJSON, "summary-json", "", "write the run summary as JSON to this path")
	cmd.Flags().BoolVar(&f.notify, "notify", false, "send a desktop notification with the result")
	_ = cmd.MarkFlagRequired("project-id")
	_ = cmd.MarkFlagRequired("project-path")
}

// apply overlays the flags that were set and validates the result.
func (f *syncFlags) apply(cmd *cobra.Command, c *config.Config) error {
	f.cloud.apply(cmd, &c.Cloud)
	fl := cmd.Flags()
	if fl.Changed("auto-create") {
		c.Sync.AutoCreate = f.autoCreate
	}
	if fl.Changed("wait-timeout") {
		c.Sync.WaitTimeout = time.Duration(f.waitTimeout) * time.Second
	}
	if fl.Changed("poll-seconds") {
		c.Sync.PollInterval = time.Duration(f.pollSeconds) * time.Second
	}
	if fl.Changed("notify") {
		c.Sync.Notify = f.notify
	}
	return c.Validate()
}

func (f *syncFlags) request(c config.Config) application.SyncRequest {
	return application.SyncRequest{
		BaseURL:     c.Cloud.URL,
		ProjectID:   f.projectID,
		ProjectPath: f.projectPath,
		Credentials: credentials(c.Cloud),
		AutoCreate:  c.Sync.AutoCreate,
		Poll:        application.PollPolicy{Timeout: c.Sync.WaitTimeout, Interval: c.Sync.PollInterval},
		Notify:      c.Sync.Notify,
	}
}

func clientOptions(c config.Config, fs afero.Fs) qfc_http.Options {
	ua := c.Cloud.UserAgent
	if ua == "" {
		ua = "qfc-sync/" + version
	}
	return qfc_http.Options{
		BaseURL:   c.Cloud.URL,
		Token:     c.Cloud.Token,
		Timeout:   c.Cloud.Timeout,
		RateLimit: c.Cloud.RateLimit,
		UserAgent: ua,
		Fs:        fs,
	}
}

func newSessionEstablisher(c config.Config, log *zap.Logger) *application.SessionEstablisher {
	return application.NewSessionEstablisher(log, qfc_http.Factory(clientOptions(c, afero.NewOsFs())), prompt.New())
}

func newSyncUseCase(c config.Config, log *zap.Logger, summaryPath string) *application.SyncUseCase {
	fs := afero.NewOsFs()
	clock := clockwork.NewRealClock()
	clients := qfc_http.Factory(clientOptions(c, fs))

	uc := application.NewSyncUseCase(
		log,
		clients,
		application.NewSessionEstablisher(log, clients, prompt.New()),
		application.NewProjectResolver(log, c.Sync.CreateSettle),
		application.NewUploader(log, fs),
		application.NewJobOrchestrator(log, clock),
		application.NewVerifier(log),
		clock,
	).WithNotifier(notify_libnotify.NewSoft().WithOptions(notify_libnotify.Options{
		Urgency: "normal",
		Expire:  10 * time.Second,
	}))

	if summaryPath != "" {
		uc.WithStore(summary_fs.New(summaryPath))
	}
	return uc
}
