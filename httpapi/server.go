package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	marketauth "github.com/arvendel/marketauth"
	"github.com/arvendel/marketauth/middleware"
	"github.com/arvendel/marketauth/role"
)

// Options defines a public type used by marketauth APIs.
//
// Options instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Options struct {
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
	// SecureCookies marks the session cookie Secure. Leave false only for
	// local plain-HTTP development.
	SecureCookies bool
}

// Server defines a public type used by marketauth APIs.
//
// Server instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Server struct {
	engine *marketauth.Engine
	opts   Options
}

// NewServer creates the HTTP surface over an engine. The returned server is
// stateless; all state lives in the engine and its store.
func NewServer(engine *marketauth.Engine, opts Options) *Server {
	return &Server{engine: engine, opts: opts}
}

// Handler builds the route table. Mount it on an [http.Server] directly or
// under a path prefix with [http.StripPrefix].
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /identity/register", s.handleRegister)
	mux.HandleFunc("POST /identity/login", s.handleLogin)
	mux.HandleFunc("POST /identity/otp/send", s.handleSendOTP)
	mux.HandleFunc("POST /identity/otp/verify", s.handleVerifyOTP)
	mux.HandleFunc("GET /identity/oauth/{provider}", s.handleOAuthBegin)
	mux.HandleFunc("POST /identity/oauth/{provider}", s.handleOAuthCallback)
	mux.HandleFunc("POST /identity/password/forgot", s.handleForgotPassword)
	mux.HandleFunc("POST /identity/password/reset/{token}", s.handleResetPassword)
	mux.HandleFunc("POST /identity/password/reset-otp", s.handleResetPasswordOTP)

	guard := middleware.Guard(s.engine)
	admin := func(h http.HandlerFunc) http.Handler {
		return guard(middleware.RequireRole(role.Admin)(h))
	}
	superadmin := func(h http.HandlerFunc) http.Handler {
		return guard(middleware.RequireRole(role.Superadmin)(h))
	}

	mux.Handle("GET /identity/me", guard(http.HandlerFunc(s.handleMe)))
	mux.Handle("POST /vendor/request", guard(http.HandlerFunc(s.handleSubmitVendorRequest)))
	mux.Handle("GET /vendor/requests/me", guard(http.HandlerFunc(s.handleOwnVendorRequest)))
	mux.Handle("GET /vendor/requests", admin(s.handleListVendorRequests))
	mux.Handle("PUT /vendor/requests/{id}", admin(s.handleProcessVendorRequest))
	mux.Handle("GET /principals", admin(s.handleListPrincipals))
	mux.Handle("PUT /principals/{id}/role", admin(s.handleChangeRole))
	// The promote override needs both a superadmin session and the shared
	// secret; the secret alone opens no door.
	mux.Handle("PUT /principals/{id}/promote", superadmin(s.handlePromoteVendor))

	ownerOrAdmin := middleware.RequireOwnerOrAdmin(func(r *http.Request) string {
		return r.PathValue("id")
	})
	mux.Handle("GET /principals/{id}", guard(ownerOrAdmin(http.HandlerFunc(s.handleGetPrincipal))))

	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}

	return mux
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.engine.Register(r.Context(), marketauth.RegisterInput{
		Email:    body.Email,
		Phone:    body.Phone,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.setSessionCookie(w, res)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier       string `json:"identifier"`
		Password         string `json:"password"`
		SuperadminSecret string `json:"superadmin_secret"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.engine.Login(r.Context(), marketauth.LoginInput{
		Identifier:       body.Identifier,
		Password:         body.Password,
		SuperadminSecret: body.SuperadminSecret,
		IP:               clientIP(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.setSessionCookie(w, res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.engine.SendOTP(r.Context(), body.Identifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Code       string `json:"code"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.engine.VerifyOTP(r.Context(), body.Identifier, body.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	s.setSessionCookie(w, res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOAuthBegin(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	state := r.URL.Query().Get("state")
	redirectURI := r.URL.Query().Get("redirect_uri")

	url, err := s.engine.OAuthBeginURL(provider, state, redirectURI)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": url})
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.engine.LoginWithOAuth(r.Context(), marketauth.OAuthInput{
		Provider:    r.PathValue("provider"),
		Code:        body.Code,
		RedirectURI: body.RedirectURI,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.setSessionCookie(w, res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.engine.ForgotPassword(r.Context(), body.Identifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.engine.ResetPassword(r.Context(), r.PathValue("token"), body.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPasswordOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier  string `json:"identifier"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.engine.ResetPasswordWithOTP(r.Context(), body.Identifier, body.Code, body.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeError(w, marketauth.ErrTokenInvalid)
		return
	}
	writeJSON(w, http.StatusOK, res.Principal)
}

func (s *Server) handleSubmitVendorRequest(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeError(w, marketauth.ErrTokenInvalid)
		return
	}

	var body marketauth.BusinessInfo
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.engine.SubmitVendorRequest(r.Context(), res.Principal.ID, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleOwnVendorRequest(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeError(w, marketauth.ErrTokenInvalid)
		return
	}

	req, err := s.engine.VendorRequestStatus(r.Context(), res.Principal.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleListVendorRequests(w http.ResponseWriter, r *http.Request) {
	status := marketauth.VendorStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = marketauth.VendorPending
	}

	reqs, err := s.engine.ListVendorRequests(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (s *Server) handleProcessVendorRequest(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeError(w, marketauth.ErrTokenInvalid)
		return
	}

	var body struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	switch body.Action {
	case "approve":
		req, err := s.engine.ApproveVendorRequest(r.Context(), res.Principal.Role, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case "reject":
		if err := s.engine.RejectVendorRequest(r.Context(), res.Principal.Role, r.PathValue("id"), body.Reason); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "action must be approve or reject"})
	}
}

func (s *Server) handlePromoteVendor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PromoteSecret string `json:"promote_secret"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.engine.PromoteVendor(r.Context(), r.PathValue("id"), body.PromoteSecret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleGetPrincipal(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.GetPrincipal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPrincipals(w http.ResponseWriter, r *http.Request) {
	rl, err := role.Parse(r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, marketauth.ErrRoleInvalid)
		return
	}

	ps, err := s.engine.ListPrincipalsByRole(r.Context(), rl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"principals": ps})
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeError(w, marketauth.ErrTokenInvalid)
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	newRole, err := role.Parse(body.Role)
	if err != nil {
		writeError(w, marketauth.ErrRoleInvalid)
		return
	}

	p, err := s.engine.ChangeRole(r.Context(), res.Principal.Role, r.PathValue("id"), newRole)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, res *marketauth.AuthResult) {
	if res == nil || res.Token == "" {
		return
	}

	maxAge := int(time.Until(res.ExpiresAt).Seconds())
	if maxAge <= 0 {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	// Trusting X-Forwarded-For is a deployment decision; we only strip the
	// port from the direct peer address.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
