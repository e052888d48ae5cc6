package server

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/omriShneor/telcal/internal/log"
)

// Health Check

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			log.WithContext(r.Context(), s.logger).Warn().Err(err).Msg("health check: database unavailable")
			respondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// OAuth

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Calendar authorization</title>
<style>
body { font-family: sans-serif; max-width: 36rem; margin: 3rem auto; padding: 0 1rem; }
code { display: block; padding: 1rem; background: #f3f3f3; word-break: break-all; user-select: all; }
</style>
</head>
<body>
{{if .Code}}
<h1>Almost done</h1>
<p>Copy the code below and send it to the bot.</p>
<code>{{.Code}}</code>
{{else}}
<h1>Authorization failed</h1>
<p>{{.Error}}</p>
<p>Open the settings in the bot and request a new link.</p>
{{end}}
</body>
</html>
`))

type callbackView struct {
	Code  string
	Error string
}

// handleOAuthCallback is the redirect target of the consent screen. The bot
// exchanges the code itself once the user pastes it into the chat, so this
// page only displays it.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view := callbackView{Code: query.Get("code")}
	status := http.StatusOK

	if view.Code == "" {
		status = http.StatusBadRequest
		view.Error = "No authorization code received."
		if e := query.Get("error"); e != "" {
			view.Error = "Google returned: " + e
			if desc := query.Get("error_description"); desc != "" {
				view.Error += " (" + desc + ")"
			}
		}
		log.WithContext(r.Context(), s.logger).Info().Str("error", query.Get("error")).Msg("OAuth callback without code")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := callbackPage.Execute(w, view); err != nil {
		s.logger.Error().Err(err).Msg("render OAuth callback page")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger := log.WithComponent("server")
		logger.Error().Err(err).Msg("Error encoding JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
