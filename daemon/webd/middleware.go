package webd

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	ghandlers "github.com/gorilla/handlers"
)

// TokenEnv names the environment variable holding the populate token.
const TokenEnv = "FLEETD_TOKEN"

// requestToken reads a bearer token from the Authorization header,
// falling back to the api_token query param.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("api_token")
}

// tokenAuthenticationMiddleware is a middleware that checks for a valid token.
// If the token is not valid, it returns a 403 Forbidden.
// If no token is configured, it allows all requests.
func tokenAuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validToken := os.Getenv(TokenEnv)
		if validToken == "" {
			slog.Warn("No token set, allowing all requests", "env", TokenEnv)
			next.ServeHTTP(w, r)
			return
		}
		if token := requestToken(r); token != validToken {
			slog.Warn("Invalid token",
				"token", fmt.Sprintf("%q", token),
				"method", r.Method, "url", r.URL.String(),
				"remote-addr", r.RemoteAddr,
				"user-agent", r.UserAgent())
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// writeLog writes a line for the request in Apache Common Log Format.
func writeLog(writer io.Writer, params ghandlers.LogFormatterParams) {
	req := params.Request
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	for _, v := range req.Header.Values("X-Forwarded-For") {
		host += "->" + v
	}
	uri := req.RequestURI
	if uri == "" {
		uri = params.URL.RequestURI()
	}
	_, _ = fmt.Fprintf(writer, "%s - - [%s] %q %d %d\n",
		host,
		params.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
		req.Method+" "+uri+" "+req.Proto,
		params.StatusCode,
		params.Size)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(os.Stdout, next, writeLog)
}
