package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleOAuth runs the authorization code flow against Google and reads the
// signed-in user's profile.
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     googleEndpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// WithEndpoints points the flow at another provider, used in tests.
func (g *GoogleOAuth) WithEndpoints(endpoint oauth2.Endpoint, userInfoURL string) *GoogleOAuth {
	cfg := *g.config
	cfg.Endpoint = endpoint
	return &GoogleOAuth{config: &cfg, userInfoURL: userInfoURL}
}

func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleOAuth) Profile(ctx context.Context, code string) (service.GoogleProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return service.GoogleProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return service.GoogleProfile{}, err
	}
	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return service.GoogleProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return service.GoogleProfile{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var profile service.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return service.GoogleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return profile, nil
}

// oauthStateCookie holds the nonce half of the OAuth state between the
// redirect and the callback.
const oauthStateCookie = "oauth_state"

// GoogleLogin redirects to the consent page. The session rides along in the
// OAuth state since a browser redirect cannot carry the session header; the
// state also carries a nonce that must match the caller's cookie.
func (h *HTTPHandler) GoogleLogin(c *gin.Context) {
	if h.svc.Google == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "google login is not configured"})
		return
	}
	sessionID := c.Query("session")
	if _, err := h.svc.Auth.ResolveSession(c.Request.Context(), sessionID); err != nil {
		h.writeError(c, err)
		return
	}

	nonce := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, nonce, 600, "/api/auth/google", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.svc.Google.AuthCodeURL(sessionID+"."+nonce))
}

func (h *HTTPHandler) GoogleCallback(c *gin.Context) {
	if h.svc.Google == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "google login is not configured"})
		return
	}
	code := c.Query("code")
	sessionID, nonce, ok := strings.Cut(c.Query("state"), ".")
	if code == "" || !ok || sessionID == "" || nonce == "" {
		badRequest(c, "code and state are required")
		return
	}
	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(cookie), []byte(nonce)) != 1 {
		h.writeError(c, fmt.Errorf("%w: oauth state mismatch", domain.ErrInvalidCredentials))
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth/google", "", c.Request.TLS != nil, true)

	var accountID string
	s, err := h.svc.Registry.Authenticate(c.Request.Context(), sessionID, func(ctx context.Context) (string, error) {
		profile, err := h.svc.Google.Profile(ctx, code)
		if err != nil {
			h.log.WithError(err).Warn("google sign-in failed")
			return "", fmt.Errorf("%w: google sign-in failed", domain.ErrInvalidCredentials)
		}
		account, err := h.svc.Auth.LoginWithGoogle(ctx, profile)
		if err != nil {
			return "", err
		}
		if _, err := h.svc.Auth.BindSession(ctx, sessionID, account); err != nil {
			return "", err
		}
		accountID = account.ID
		return account.ID, nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.WithField("account_id", accountID).WithField("session_id", sessionID).Info("logged in with google")
	c.Header(SessionHeader, sessionID)
	c.JSON(http.StatusOK, s.Snapshot())
}
