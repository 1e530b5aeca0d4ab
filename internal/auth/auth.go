/*
Package auth implements the Fitbit OAuth2 authorization-code flow through
goth. The access token is handed to the frontend as a query parameter after
the exchange.
*/
package auth

import (
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	gothfitbit "github.com/markbates/goth/providers/fitbit"

	"vitastate/internal/config"
	"vitastate/internal/fitbit"
	"vitastate/internal/utility"
)

const (
	providerName = "fitbit"
	stateMaxAge  = 600
)

// FitbitHandler serves /auth/fitbit/login and /auth/fitbit/callback.
type FitbitHandler struct {
	cfg config.FitbitConfig
}

// NewFitbitHandler registers the Fitbit provider with goth and points the
// gothic session store at a short-lived cookie store. httpClient may be nil.
func NewFitbitHandler(cfg config.FitbitConfig, sessionSecret string, secure bool, httpClient *http.Client) *FitbitHandler {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.MaxAge(stateMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode

	gothic.Store = store

	provider := gothfitbit.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, fitbit.Scopes...)
	provider.HTTPClient = httpClient
	goth.UseProviders(provider)

	return &FitbitHandler{cfg: cfg}
}

// withProvider tags the request so gothic resolves the Fitbit provider.
func withProvider(c echo.Context) *http.Request {
	return gothic.GetContextWithProvider(c.Request(), providerName)
}

// Login redirects the browser to the Fitbit consent page. gothic keeps the
// state in the session cookie.
func (h *FitbitHandler) Login(c echo.Context) error {
	logger := utility.GetLogger(c)

	authURL, err := gothic.GetAuthURL(c.Response(), withProvider(c))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start Fitbit OAuth flow")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start Fitbit login"})
	}

	logger.Info().Bool("mock_mode", h.cfg.MockMode()).Msg("Starting Fitbit OAuth flow")
	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback exchanges the authorization code for an access token. With
// placeholder credentials a mock token is issued instead; real credentials
// never take that path.
func (h *FitbitHandler) Callback(c echo.Context) error {
	logger := utility.GetLogger(c)

	if c.QueryParam("code") == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing authorization code"})
	}

	if h.cfg.MockMode() {
		logger.Warn().Msg("Fitbit credentials are placeholders, issuing mock token")
		return c.Redirect(http.StatusTemporaryRedirect, h.dashboardURL(fitbit.MockToken))
	}

	gothUser, err := gothic.CompleteUserAuth(c.Response(), withProvider(c))
	if err != nil {
		logger.Error().Err(err).Msg("Fitbit auth completion failed")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Fitbit auth failed: " + err.Error()})
	}

	logger.Info().Str("fitbit_user", gothUser.UserID).Msg("Fitbit account connected")
	return c.Redirect(http.StatusTemporaryRedirect, h.dashboardURL(gothUser.AccessToken))
}

func (h *FitbitHandler) dashboardURL(token string) string {
	return h.cfg.FrontendURL + "/dashboard?token=" + url.QueryEscape(token)
}
