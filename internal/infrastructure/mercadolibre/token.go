package mercadolibre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// TokenService implements mirror.TokenRefresher using the platform's
// OAuth refresh grant. Refresh tokens rotate on every grant, so the new
// credential is persisted before it is handed back to the caller.
type TokenService struct {
	config     *Config
	accounts   mirror.AccountRepository
	httpClient *http.Client
	logger     *zap.Logger
	margin     time.Duration
}

// NewTokenService creates a new TokenService. Tokens still valid for at
// least margin are not refreshed.
func NewTokenService(config *Config, accounts mirror.AccountRepository, margin time.Duration, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		config:   config,
		accounts: accounts,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.Named("mercadolibre.token"),
		margin: margin,
	}
}

var _ mirror.TokenRefresher = (*TokenService)(nil)

// Refresh returns an account with a usable access token, rotating the
// stored credential when the current one is expired or about to expire.
// Calling with an already-valid credential returns the account unchanged.
func (s *TokenService) Refresh(ctx context.Context, account *mirror.Account) (*mirror.Account, error) {
	if account.TokenValidFor(s.margin) {
		return account, nil
	}
	if account.RefreshToken == "" {
		return nil, mirror.ErrMissingRefreshToken
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", s.config.ClientID)
	form.Set("client_secret", s.config.ClientSecret)
	form.Set("refresh_token", account.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mirror.ErrTokenRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to read refresh response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", mirror.ErrTokenRefreshFailed, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", mirror.ErrTokenRefreshFailed, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", mirror.ErrTokenRefreshFailed)
	}

	refreshed := *account
	refreshed.AccessToken = tok.AccessToken
	refreshed.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		refreshed.TokenType = tok.TokenType
	}
	if tok.Scope != "" {
		refreshed.Scope = tok.Scope
	}

	if err := s.accounts.UpdateCredentials(ctx, &refreshed); err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to persist rotated credential: %w", err)
	}

	s.logger.Info("access token refreshed",
		zap.Int64("account_id", account.ID),
		zap.Time("expires_at", refreshed.ExpiresAt),
	)
	return &refreshed, nil
}
