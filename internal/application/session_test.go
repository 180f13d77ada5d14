package application

import (
	"context"
	"errors"
	"testing"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEstablisher(cloud *domain.MockCloud, secrets domain.SecretProvider) *SessionEstablisher {
	return NewSessionEstablisher(zap.NewNop(), func(domain.Session) domain.CloudClient { return cloud }, secrets)
}

func TestEstablish_TokenSkipsLogin(t *testing.T) {
	cloud := &domain.MockCloud{}
	e := newEstablisher(cloud, &domain.MockSecrets{})

	s, login, err := e.Establish(context.Background(), "https://qfc.test", Credentials{Token: "abc", Username: "ann"})
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Token.Value())
	assert.True(t, login.Raw.IsNull())
	assert.Zero(t, cloud.Called("Login"))
}

func TestEstablish_PromptsForPassword(t *testing.T) {
	cloud := &domain.MockCloud{LoginToken: "fresh"}
	secrets := &domain.MockSecrets{Value: "pw"}
	e := newEstablisher(cloud, secrets)

	s, login, err := e.Establish(context.Background(), "https://qfc.test", Credentials{Email: "ann@example.org"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", s.Token.Value())
	assert.Equal(t, "https://qfc.test", s.BaseURL)
	assert.Len(t, secrets.Prompts, 1)
	assert.Equal(t, "[REDACTED]", login.Raw.GetText("token"))
}

func TestEstablish_NoCredentials(t *testing.T) {
	e := newEstablisher(&domain.MockCloud{}, &domain.MockSecrets{})

	_, _, err := e.Establish(context.Background(), "https://qfc.test", Credentials{})
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestEstablish_PromptFailure(t *testing.T) {
	e := newEstablisher(&domain.MockCloud{}, &domain.MockSecrets{Err: errors.New("no tty")})

	_, _, err := e.Establish(context.Background(), "https://qfc.test", Credentials{Username: "ann"})
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "no tty")
}

func TestEstablish_LoginRejected(t *testing.T) {
	cloud := &domain.MockCloud{LoginErr: errors.New("400 Bad Request: invalid credentials")}
	e := newEstablisher(cloud, nil)

	_, _, err := e.Establish(context.Background(), "https://qfc.test", Credentials{Username: "ann", Password: "bad"})
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestEstablish_LoginWithoutTokenKeepsSession(t *testing.T) {
	cloud := &domain.MockCloud{}
	e := newEstablisher(cloud, nil)

	s, _, err := e.Establish(context.Background(), "https://qfc.test", Credentials{Username: "ann", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
}
