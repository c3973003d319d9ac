// Package fixture serves the endpoints the client is exercised against in
// tests, examples and the knorry-fixtures command.
package fixture

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	jsoniter "github.com/json-iterator/go"
)

// Credentials accepted by /auth.
const (
	Username = "gunnar"
	Password = "gneg"
)

// TestText is the body of /textresp.
const TestText = "!!TEST_TEXT!!"

// CookieName is the cookie set by /cookie/set.
const CookieName = "knorry_session"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server routes the fixture endpoints.
type Server struct {
	router chi.Router
	logger hclog.Logger
}

// New builds the fixture router. A nil logger discards output.
func New(logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Server{router: chi.NewRouter(), logger: logger}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.logRequests)

	// Responses of every shape
	r.Get("/jsonresp", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"worked": true})
	})
	r.Get("/textresp", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, TestText)
	})
	r.Get("/bool", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, true)
	})
	r.Get("/jsonarrayresp", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []bool{true})
	})
	r.Get("/number", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, 42.5)
	})
	r.Get("/null", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nil)
	})
	r.Get("/broken-json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{not json")
	})
	r.Get("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/status/{code}", s.handleStatus)

	// Request inspection
	r.Get("/auth", s.handleAuth)
	r.Get("/echoheaders", s.handleEchoHeaders)
	r.Get("/timeout-test", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	r.Get("/cookie/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "1", Path: "/"})
		writeJSON(w, http.StatusOK, true)
	})
	r.Get("/cookie/echo", func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie(CookieName)
		writeJSON(w, http.StatusOK, err == nil)
	})

	// Request bodies
	r.Post("/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"value": true})
	})
	r.Post("/echo-json-data", s.handleEchoJSONData)
	r.Post("/echo-formdata", s.handleEchoFormData)
	r.Post("/echo-urlencoded", s.handleEchoURLEncoded)
	r.Post("/upload-file", s.handleUploadFile)
	r.Post("/plain-post", s.handlePlainPost)
	r.Post("/redirect/{code}", s.handleRedirect)
	r.Post("/body-framing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"contentLength":    r.ContentLength,
			"transferEncoding": r.TransferEncoding,
		})
	})
	r.Post("/echo-content-type", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, r.Header.Get("Content-Type"))
	})

	// Other verbs
	trueHandler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, true)
	}
	r.Put("/true", trueHandler)
	r.Delete("/true", trueHandler)
	r.Options("/true", trueHandler)
	r.Patch("/true", trueHandler)
	r.Head("/true", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.MethodFunc("OPTIONS", "/method", echoMethod)
	r.MethodFunc("PATCH", "/method", echoMethod)
	r.MethodFunc("PUT", "/method", echoMethod)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("fixture request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 200 || code > 599 {
		writeText(w, http.StatusBadRequest, "invalid status code")
		return
	}
	writeText(w, code, http.StatusText(code))
}

// handleRedirect answers with a body-preserving redirect to /plain-post.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || (code != http.StatusTemporaryRedirect && code != http.StatusPermanentRedirect) {
		writeText(w, http.StatusBadRequest, "invalid redirect code")
		return
	}
	http.Redirect(w, r, "/plain-post", code)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := basicAuth(r)
	if !ok || strings.TrimSpace(user) != Username || strings.TrimSpace(pass) != Password {
		s.logger.Info("rejected credentials", "user", user)
		w.Header().Set("WWW-Authenticate", `Basic realm="Authentication Required"`)
		writeJSON(w, http.StatusUnauthorized, false)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

// basicAuth reads credentials from the Authorization header. Unlike
// Request.BasicAuth it tolerates repeated header values combined by a comma.
func basicAuth(r *http.Request) (string, string, bool) {
	header := r.Header.Get("Authorization")
	if i := strings.IndexByte(header, ','); i >= 0 {
		header = header[:i]
	}
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	return user, pass, ok
}

func (s *Server) handleEchoHeaders(w http.ResponseWriter, r *http.Request) {
	headers := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	headers["host"] = r.Host
	writeJSON(w, http.StatusOK, headers)
}

func (s *Server) handleEchoJSONData(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Worked interface{} `json:"worked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, body.Worked)
}

func (s *Server) handleEchoFormData(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(2 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	fields := map[string]string{}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[key] = values[len(values)-1]
		}
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) handleEchoURLEncoded(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	fields := map[string]string{}
	for key := range r.PostForm {
		fields[key] = r.PostForm.Get(key)
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(2 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	for _, files := range r.MultipartForm.File {
		for _, header := range files {
			f, err := header.Open()
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			s.logger.Debug("uploaded file", "name", header.Filename, "size", len(content))
			writeJSON(w, http.StatusOK, strings.Contains(string(content), "TRUE"))
			return
		}
	}
	writeJSON(w, http.StatusOK, false)
}

func (s *Server) handlePlainPost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, string(body) == "TEST")
}

func echoMethod(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, r.Method)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}
