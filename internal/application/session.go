package application

import (
	"context"
	"strings"

	"github.com/davarch/qfc-sync/internal/domain"
	"go.uber.org/zap"
)

// Credentials are the operator-supplied ways to authenticate.
type Credentials struct {
	Token    domain.Secret
	Username string
	Email    string
	Password domain.Secret
}

// LoginID prefers the username over the email.
func (c Credentials) LoginID() string {
	if u := strings.TrimSpace(c.Username); u != "" {
		return u
	}
	return strings.TrimSpace(c.Email)
}

type SessionEstablisher struct {
	log       *zap.Logger
	newClient domain.ClientFactory
	secrets   domain.SecretProvider
}

func NewSessionEstablisher(l *zap.Logger, f domain.ClientFactory, secrets domain.SecretProvider) *SessionEstablisher {
	return &SessionEstablisher{log: l.Named("session"), newClient: f, secrets: secrets}
}

// Establish returns a session for baseURL. A token wins; otherwise a login
// identifier plus a password (asked for through the SecretProvider when
// missing) is exchanged for one. The LoginResult is zero on the token path.
func (e *SessionEstablisher) Establish(ctx context.Context, baseURL string, creds Credentials) (domain.Session, domain.LoginResult, error) {
	sess := domain.Session{BaseURL: baseURL, Token: creds.Token}
	if creds.Token.IsSet() {
		e.log.Debug("using token", zap.String("url", baseURL))
		return sess, domain.LoginResult{}, nil
	}

	login := creds.LoginID()
	if login == "" {
		return domain.Session{}, domain.LoginResult{}, &domain.AuthenticationError{
			Reason: "no token provided; use a token or username/email login",
		}
	}

	password := creds.Password
	if !password.IsSet() {
		if e.secrets == nil {
			return domain.Session{}, domain.LoginResult{}, &domain.AuthenticationError{Reason: "password required for " + login}
		}
		pw, err := e.secrets.Secret(ctx, "QFieldCloud password: ")
		if err != nil {
			return domain.Session{}, domain.LoginResult{}, &domain.AuthenticationError{Reason: "read password", Err: err}
		}
		password = domain.Secret(pw)
	}
	if !password.IsSet() {
		return domain.Session{}, domain.LoginResult{}, &domain.AuthenticationError{Reason: "empty password for " + login}
	}

	res, err := e.newClient(sess).Login(ctx, login, password.Value())
	if err != nil {
		return domain.Session{}, domain.LoginResult{}, &domain.AuthenticationError{Reason: "login as " + login, Err: err}
	}

	if res.Token.IsSet() {
		sess = domain.Session{BaseURL: baseURL, Token: res.Token}
		e.log.Info("logged in", zap.String("user", login))
	} else {
		e.log.Warn("login returned no token, continuing unauthenticated", zap.String("user", login))
	}
	return sess, res, nil
}
