package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// TokenResponse is the body of a successful token request
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns ok when the code store is reachable
// @Tags         Health
// @Produce      json
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// OAuth endpoints

// handleAuthorize godoc
// @Summary      Authorization endpoint
// @Description  Issues a code and redirects. The out-of-band redirect URI lands on /oauth/authorize/native.
// @Tags         OAuth
// @Param        client_id      query  string  true   "Client ID"
// @Param        redirect_uri   query  string  true   "Redirect URI"
// @Param        response_type  query  string  true   "Must be code"
// @Param        scope          query  string  false  "Space separated scopes"
// @Success      302
// @Failure      400  {object}  driving.OAuthError
// @Router       /oauth/authorize [get]
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := s.devAuth.Authorize(r.Context(), driving.AuthorizeRequest{
		ClientID:     q.Get("client_id"),
		RedirectURI:  q.Get("redirect_uri"),
		ResponseType: q.Get("response_type"),
		Scope:        q.Get("scope"),
		State:        q.Get("state"),
	})
	if err != nil {
		s.writeOAuthError(w, err)
		return
	}

	http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
}

var nativePage = template.Must(template.New("native").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization code</title></head>
<body>
{{if .Code}}<p>Authorization code:</p>
<pre id="code">{{.Code}}</pre>{{else}}<p>No authorization code was supplied.</p>{{end}}
</body>
</html>
`))

// handleNative renders the page a browser would show for an out-of-band
// redirect. Embedded surfaces cancel this navigation before it is requested.
func (s *Server) handleNative(w http.ResponseWriter, r *http.Request) {
	code, ok := domain.MatchAuthorizationCode(r.URL.String())
	status := http.StatusOK
	if !ok {
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := nativePage.Execute(w, struct{ Code string }{code}); err != nil {
		s.logger.Error("render native page", "error", err)
	}
}

// handleToken godoc
// @Summary      Token endpoint
// @Description  Redeems an authorization code for an access token
// @Tags         OAuth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  driving.OAuthError
// @Failure      401  {object}  driving.OAuthError
// @Router       /oauth/token [post]
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeOAuthError(w, driving.ErrOAuthInvalidRequest)
		return
	}

	req := driving.TokenRequest{
		GrantType:    r.PostForm.Get("grant_type"),
		ClientID:     r.PostForm.Get("client_id"),
		ClientSecret: r.PostForm.Get("client_secret"),
		Code:         r.PostForm.Get("code"),
		RedirectURI:  r.PostForm.Get("redirect_uri"),
	}
	if id, secret, ok := r.BasicAuth(); ok {
		req.ClientID, req.ClientSecret = id, secret
	}

	token, err := s.devAuth.Exchange(r.Context(), req)
	if err != nil {
		s.writeOAuthError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Scope:       token.Scope,
		CreatedAt:   token.CreatedAt.Unix(),
	})
}

// writeOAuthError maps OAuth errors to RFC 6749 responses and anything else
// to a server error.
func (s *Server) writeOAuthError(w http.ResponseWriter, err error) {
	var oauthErr *driving.OAuthError
	if !errors.As(err, &oauthErr) {
		s.logger.Error("oauth request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, &driving.OAuthError{Code: "server_error"})
		return
	}

	status := http.StatusBadRequest
	if oauthErr.Code == driving.ErrOAuthInvalidClient.Code {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, oauthErr)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
