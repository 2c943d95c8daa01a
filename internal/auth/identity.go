package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrExchangeFailed is returned when the platform rejects the
// authorization code or the user lookup fails.
var ErrExchangeFailed = errors.New("identity exchange failed")

// UserProfile is the platform user behind an authorization code.
type UserProfile struct {
	OpenID      string `json:"open_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Identity is the result of a completed code exchange.
type Identity struct {
	AccessToken string      `json:"access_token"`
	User        UserProfile `json:"user"`
}

// Exchanger swaps an OAuth authorization code for a platform access
// token and the user behind it.
type Exchanger struct {
	baseURL      string
	clientKey    string
	clientSecret string
	redirectURI  string
	http         *http.Client
	logger       *zap.Logger
}

// NewExchanger creates an identity exchanger against the platform's open
// API. redirectURI must match the URI registered for the client key.
func NewExchanger(baseURL, clientKey, clientSecret, redirectURI string, timeout time.Duration, logger *zap.Logger) *Exchanger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exchanger{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientKey:    clientKey,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		http:         &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

type tokenResponse struct {
	Data struct {
		AccessToken string `json:"access_token"`
		OpenID      string `json:"open_id"`
	} `json:"data"`
}

type userInfoResponse struct {
	Data struct {
		User UserProfile `json:"user"`
	} `json:"data"`
}

// Exchange trades an authorization code for an access token, then loads
// the user's profile with it.
func (e *Exchanger) Exchange(ctx context.Context, code string) (Identity, error) {
	form := url.Values{}
	form.Set("client_key", e.clientKey)
	form.Set("client_secret", e.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	if e.redirectURI != "" {
		form.Set("redirect_uri", e.redirectURI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/oauth/access_token/", strings.NewReader(form.Encode()))
	if err != nil {
		return Identity{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.http.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: token endpoint status %d", ErrExchangeFailed, resp.StatusCode)
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Identity{}, fmt.Errorf("%w: decode token response: %v", ErrExchangeFailed, err)
	}
	if tr.Data.AccessToken == "" {
		return Identity{}, fmt.Errorf("%w: empty access token", ErrExchangeFailed)
	}

	user, err := e.userInfo(ctx, tr.Data.AccessToken)
	if err != nil {
		return Identity{}, err
	}
	if user.OpenID == "" {
		user.OpenID = tr.Data.OpenID
	}
	e.logger.Info("identity exchange complete", zap.String("open_id", user.OpenID))
	return Identity{AccessToken: tr.Data.AccessToken, User: user}, nil
}

func (e *Exchanger) userInfo(ctx context.Context, accessToken string) (UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/user/info/", nil)
	if err != nil {
		return UserProfile{}, fmt.Errorf("build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.http.Do(req)
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return UserProfile{}, fmt.Errorf("%w: user info status %d", ErrExchangeFailed, resp.StatusCode)
	}
	var ur userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return UserProfile{}, fmt.Errorf("%w: decode user info: %v", ErrExchangeFailed, err)
	}
	return ur.Data.User, nil
}
