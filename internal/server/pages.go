package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/accounts"
	"github.com/hyperjump/kotae/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// DependenciesFile is the dependency report served at /admin/dependencies, relative to the data dir.
const DependenciesFile = "dependencies.json"

func parsePages() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// page is the data passed to every template.
type page struct {
	Title    string
	User     string
	Error    string
	Username string
	Question string
	Answer   *models.Answer
	Message  string
	Link     string
	LinkText string
	Report   string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data page) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render page failed", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderLoginRequired(w http.ResponseWriter) {
	s.render(w, http.StatusForbidden, "message.html", page{
		Title:    "Login required",
		Message:  "Please log in first.",
		Link:     "/login",
		LinkText: "Log in",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", page{Title: "Ask", User: currentUser(r)})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", page{Title: "Log in", User: currentUser(r)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password := r.PostFormValue("username"), r.PostFormValue("password")
	u, err := s.accounts.Verify(r.Context(), username, password)
	if err != nil {
		status := http.StatusUnauthorized
		msg := "Invalid username or password."
		if !errors.Is(err, accounts.ErrInvalidCredentials) {
			s.logger.Error("login failed", zap.Error(err))
			status, msg = http.StatusInternalServerError, "Login is temporarily unavailable."
		}
		s.render(w, status, "login.html", page{Title: "Log in", Error: msg, Username: username})
		return
	}
	if err := s.startSession(w, r, u.Username); err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.render(w, http.StatusInternalServerError, "login.html", page{Title: "Log in", Error: "Login is temporarily unavailable."})
		return
	}
	s.logger.Debug("user logged in", zap.String("user", u.Username))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "register.html", page{Title: "Register", User: currentUser(r)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	data := page{Title: "Register", Username: username}
	if password != r.PostFormValue("password_confirm") {
		data.Error = "The passwords do not match."
		s.render(w, http.StatusBadRequest, "register.html", data)
		return
	}
	u, err := s.accounts.Register(r.Context(), username, password)
	switch {
	case errors.Is(err, accounts.ErrUserExists):
		data.Error = "That username is already taken."
		s.render(w, http.StatusConflict, "register.html", data)
		return
	case errors.Is(err, accounts.ErrInvalidUsername), errors.Is(err, accounts.ErrInvalidPassword):
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, "register.html", data)
		return
	case err != nil:
		s.logger.Error("register failed", zap.Error(err))
		data.Error = "Registration is temporarily unavailable."
		s.render(w, http.StatusInternalServerError, "register.html", data)
		return
	}
	if err := s.startSession(w, r, u.Username); err != nil {
		s.logger.Error("create session failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r)
	s.render(w, http.StatusOK, "message.html", page{
		Title:    "Logged out",
		Message:  "You have been logged out.",
		Link:     "/",
		LinkText: "Back to the home page",
	})
}

func (s *Server) handleAskForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == "" {
		s.renderLoginRequired(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.Server.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.render(w, http.StatusRequestEntityTooLarge, "index.html", page{Title: "Ask", User: user, Error: "The upload is too large or malformed."})
		return
	}
	req := &models.AskRequest{User: user, Question: r.FormValue("question")}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		s.render(w, http.StatusBadRequest, "index.html", page{Title: "Ask", User: user, Error: "Could not read the uploaded file."})
		return
	default:
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			s.render(w, http.StatusBadRequest, "index.html", page{Title: "Ask", User: user, Error: "Could not read the uploaded file."})
			return
		}
		text, err := s.extractor.ExtractBytes(content, header.Filename)
		if err != nil {
			s.logger.Debug("extract failed", zap.String("file", header.Filename), zap.Error(err))
			s.render(w, http.StatusBadRequest, "index.html", page{Title: "Ask", User: user, Error: "Could not extract text from " + header.Filename + "."})
			return
		}
		req.Document = text
	}

	answer, err := s.pipeline.Process(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("ask failed", zap.String("user", user), zap.Error(err))
		}
		s.render(w, status, "result.html", page{Title: "Answer", User: user, Question: req.Question, Error: publicMessage(err)})
		return
	}
	s.render(w, http.StatusOK, "result.html", page{Title: "Answer", User: user, Question: req.Question, Answer: answer})
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == "" {
		s.renderLoginRequired(w)
		return
	}
	raw, err := os.ReadFile(filepath.Join(s.config.Storage.DataDir, DependenciesFile))
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "No dependency analysis data found.", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("read dependency report failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		s.logger.Warn("dependency report is not valid JSON", zap.Error(err))
		http.Error(w, "dependency report is not valid JSON", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "admin.html", page{Title: "Dependencies", User: user, Report: pretty.String()})
}
