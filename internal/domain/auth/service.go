package auth

import (
	"crypto/subtle"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid client credentials")
	ErrIssuanceDisabled   = errors.New("token issuance is not configured")
)

type Token struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
	Scope       string `json:"scope"`
}

// Service issues bearer tokens to the single configured API client.
type Service struct {
	secret     string
	clientID   string
	secretHash string
	ttl        time.Duration
}

func NewService(secret, clientID, clientSecretHash string, ttl time.Duration) *Service {
	return &Service{secret: secret, clientID: clientID, secretHash: clientSecretHash, ttl: ttl}
}

func (s *Service) Enabled() bool {
	return s != nil && s.secret != "" && s.clientID != "" && s.secretHash != ""
}

func (s *Service) IssueToken(clientID, clientSecret string) (Token, error) {
	if !s.Enabled() {
		return Token{}, ErrIssuanceDisabled
	}
	if subtle.ConstantTimeCompare([]byte(clientID), []byte(s.clientID)) != 1 {
		return Token{}, ErrInvalidCredentials
	}
	if err := CheckPassword(s.secretHash, clientSecret); err != nil {
		return Token{}, ErrInvalidCredentials
	}

	signed, err := GenerateToken(s.secret, Claims{ClientID: clientID, Scope: ScopeDirectoryWrite}, s.ttl)
	if err != nil {
		return Token{}, err
	}
	return Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		Scope:       ScopeDirectoryWrite,
	}, nil
}
