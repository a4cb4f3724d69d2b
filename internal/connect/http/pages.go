package http

import (
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/bartab-connect/pkg/connectsdk"
	"github.com/aussiebroadwan/bartab-connect/pkg/httpx"
)

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization Successful</title></head>
<body>
	<h2>{{.Provider}} connected</h2>
	<p>You can close this window.</p>
	<script>
		if (window.opener) {
			window.opener.postMessage({type: "oauth_success", service: {{.Provider}}}, "*");
			window.close();
		}
	</script>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization Failed</title></head>
<body>
	<h2>{{.Provider}} authorization failed</h2>
	<p>{{.Description}}</p>
	<p>You can close this window and try again.</p>
	<script>
		if (window.opener) {
			window.opener.postMessage({type: "oauth_error", service: {{.Provider}}, error: {{.Code}}}, "*");
		}
	</script>
</body>
</html>
`))

type pageData struct {
	Provider    string
	Code        string
	Description string
}

func renderCallbackSuccess(w http.ResponseWriter, provider string) {
	renderPage(w, http.StatusOK, successPage, pageData{Provider: provider})
}

func renderCallbackError(w http.ResponseWriter, provider string, e *connectsdk.APIError) {
	renderPage(w, e.StatusCode, errorPage, pageData{
		Provider:    provider,
		Code:        e.Code,
		Description: e.Description,
	})
}

func renderPage(w http.ResponseWriter, status int, t *template.Template, data pageData) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = t.Execute(w, data)
}
