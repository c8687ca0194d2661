// Package httpapi exposes the REST surface of the affiliate backend.
package httpapi

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	app "github.com/linkcart/affiliate_backend/internal/app"
	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/domain/catalog"
	"github.com/linkcart/affiliate_backend/internal/app/metrics"
	"github.com/linkcart/affiliate_backend/internal/app/services/accounts"
	"github.com/linkcart/affiliate_backend/internal/app/services/banners"
	"github.com/linkcart/affiliate_backend/internal/app/services/categories"
	"github.com/linkcart/affiliate_backend/internal/app/services/commission"
	"github.com/linkcart/affiliate_backend/internal/app/services/withdrawals"
	"github.com/linkcart/affiliate_backend/internal/errors"
	"github.com/linkcart/affiliate_backend/internal/httputil"
	"github.com/linkcart/affiliate_backend/internal/middleware"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// Options configures the HTTP surface.
type Options struct {
	JWTSecret         []byte
	JWTIssuer         string
	TokenTTL          time.Duration
	RequestsPerSecond int
	Burst             int
	AllowedOrigins    []string
	AuditPath         string
	Log               *logger.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	opts  Options
	audit *auditLog
	log   *logger.Logger
}

// NewHandler returns the fully wired router: tracing, metrics, CORS, rate
// limiting and JWT auth around the REST API.
func NewHandler(application *app.Application, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	sink, err := newFileAuditSink(opts.AuditPath)
	if err != nil {
		log.WithError(err).Warn("audit sink unavailable; keeping entries in memory only")
	}
	h := &handler{
		app:   application,
		opts:  opts,
		audit: newAuditLog(0, sink),
		log:   log,
	}

	r := mux.NewRouter()
	r.Use(middleware.NewTracingMiddleware(log).Handler)
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.NewCORSMiddleware(opts.AllowedOrigins).Handler)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	skip := []string{
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/products/*",
		"/api/v1/browse-nodes/*",
		"/api/v1/categories",
		"/api/v1/banners",
	}
	optional := []string{
		"/api/v1/clicks",
	}
	auth := middleware.NewAuthMiddleware(opts.JWTSecret, log, skip, optional)
	api.Use(auth.Handler)
	if opts.RequestsPerSecond > 0 {
		api.Use(middleware.NewRateLimiter(opts.RequestsPerSecond, opts.Burst, log).Handler)
	}

	api.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/me", h.me).Methods(http.MethodGet)

	api.HandleFunc("/products/search", h.searchProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{asin}", h.getProduct).Methods(http.MethodGet)
	api.HandleFunc("/browse-nodes/{id}", h.getBrowseNode).Methods(http.MethodGet)

	api.HandleFunc("/clicks", h.trackClick).Methods(http.MethodPost)
	api.HandleFunc("/clicks", h.listClicks).Methods(http.MethodGet)
	api.HandleFunc("/clicks/{id}", h.getClick).Methods(http.MethodGet)

	api.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet)
	api.HandleFunc("/banners", h.listBanners).Methods(http.MethodGet)

	api.HandleFunc("/transactions", h.listTransactions).Methods(http.MethodGet)

	api.HandleFunc("/withdrawals", h.createWithdrawal).Methods(http.MethodPost)
	api.HandleFunc("/withdrawals", h.listWithdrawals).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(string(account.RoleAdmin)))
	admin.Use(h.auditMiddleware)

	admin.HandleFunc("/categories", h.createCategory).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", h.updateCategory).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id}", h.deleteCategory).Methods(http.MethodDelete)

	admin.HandleFunc("/banners", h.createBanner).Methods(http.MethodPost)
	admin.HandleFunc("/banners/{id}", h.updateBanner).Methods(http.MethodPut)
	admin.HandleFunc("/banners/{id}", h.deleteBanner).Methods(http.MethodDelete)

	admin.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/role", h.setUserRole).Methods(http.MethodPost)

	admin.HandleFunc("/clicks/{id}/commission", h.overrideCommission).Methods(http.MethodPost)
	admin.HandleFunc("/transactions/pending", h.listPendingTransactions).Methods(http.MethodGet)
	admin.HandleFunc("/transactions/{id}/approve", h.approveTransaction).Methods(http.MethodPost)
	admin.HandleFunc("/transactions/{id}/reject", h.rejectTransaction).Methods(http.MethodPost)

	admin.HandleFunc("/withdrawals/{id}/approve", h.approveWithdrawal).Methods(http.MethodPost)
	admin.HandleFunc("/withdrawals/{id}/reject", h.rejectWithdrawal).Methods(http.MethodPost)

	admin.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	return r
}

// auditMiddleware records every administrative action.
func (h *handler) auditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.audit.add(auditEntry{
			Time:       time.Now().UTC(),
			User:       middleware.GetUserID(r.Context()),
			Role:       middleware.GetUserRole(r.Context()),
			Path:       r.URL.Path,
			Method:     r.Method,
			Status:     rec.status,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeErr maps service errors and catalog failures to HTTP responses.
func (h *handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *catalog.APIError
	if stderrors.As(err, &apiErr) {
		h.writeCatalogErr(w, r, apiErr)
		return
	}
	httputil.WriteServiceError(w, r, err)
}

func (h *handler) writeCatalogErr(w http.ResponseWriter, r *http.Request, apiErr *catalog.APIError) {
	var se *errors.ServiceError
	switch apiErr.Kind {
	case catalog.KindBadRequest:
		se = errors.Validation(apiErr.Message)
	case catalog.KindMissingCredentials, catalog.KindServiceUnavailable,
		catalog.KindNetworkError, catalog.KindTimeoutError:
		se = errors.RemoteUnavailable(apiErr.Message, apiErr)
		if apiErr.HTTPStatus != 0 {
			se.HTTPStatus = apiErr.HTTPStatus
		}
	case catalog.KindUnauthorized, catalog.KindForbidden, catalog.KindTooManyRequests:
		se = errors.RemoteRejected(apiErr.Message, apiErr.HTTPStatus, apiErr)
	default:
		se = errors.RemoteServer(apiErr.Message, apiErr)
	}
	se.WithDetails("kind", string(apiErr.Kind)).WithDetails("retryable", apiErr.Kind.Retryable())
	if apiErr.Code != "" {
		se.WithDetails("remote_code", apiErr.Code)
	}
	httputil.WriteServiceError(w, r, se)
}

func (h *handler) principal(r *http.Request) *commission.Principal {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return nil
	}
	return &commission.Principal{
		UserID: userID,
		Role:   account.Role(middleware.GetUserRole(r.Context())),
	}
}

// ----- auth -----

type tokenResponse struct {
	Token string       `json:"token"`
	User  account.User `json:"user"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload accounts.RegisterInput
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	u, err := h.app.Accounts.Register(r.Context(), payload)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	token, err := middleware.IssueToken(h.opts.JWTSecret, h.opts.JWTIssuer, h.opts.TokenTTL, u)
	if err != nil {
		h.writeErr(w, r, errors.Internal("issue token", err))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{Token: token, User: u})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	u, err := h.app.Accounts.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	token, err := middleware.IssueToken(h.opts.JWTSecret, h.opts.JWTIssuer, h.opts.TokenTTL, u)
	if err != nil {
		h.writeErr(w, r, errors.Internal("issue token", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: token, User: u})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		httputil.Unauthorized(w, "")
		return
	}
	u, err := h.app.Accounts.Get(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// ----- product catalog -----

func (h *handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.SearchParams{
		Keywords:    q.Get("keywords"),
		SearchIndex: q.Get("search_index"),
		Brand:       q.Get("brand"),
	}
	params.ItemCount, _ = strconv.Atoi(q.Get("item_count"))
	params.ItemPage, _ = strconv.Atoi(q.Get("item_page"))
	params.MinPrice, _ = strconv.ParseFloat(q.Get("min_price"), 64)
	params.MaxPrice, _ = strconv.ParseFloat(q.Get("max_price"), 64)

	result, err := h.app.Catalog.SearchItems(r.Context(), params)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	asin := mux.Vars(r)["asin"]
	result, err := h.app.Catalog.GetItems(r.Context(), []string{asin})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if len(result.Items) == 0 {
		h.writeErr(w, r, errors.NotFound("product"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result.Items[0])
}

func (h *handler) getBrowseNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := h.app.Catalog.GetBrowseNodes(r.Context(), []string{id})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if len(result.Nodes) == 0 {
		h.writeErr(w, r, errors.NotFound("browse node"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result.Nodes[0])
}

// ----- clicks & commissions -----

func (h *handler) trackClick(w http.ResponseWriter, r *http.Request) {
	var payload commission.ClickInput
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	rec, err := h.app.Commission.TrackClick(r.Context(), payload, h.principal(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// agentFilter scopes list endpoints: admins may pass agent_id (or omit it
// for everything), everyone else only sees their own records.
func (h *handler) agentFilter(r *http.Request) string {
	if middleware.GetUserRole(r.Context()) == string(account.RoleAdmin) {
		return r.URL.Query().Get("agent_id")
	}
	return middleware.GetUserID(r.Context())
}

func (h *handler) listClicks(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		httputil.Unauthorized(w, "")
		return
	}
	records, err := h.app.Commission.ListClicks(r.Context(), h.agentFilter(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *handler) getClick(w http.ResponseWriter, r *http.Request) {
	rec, err := h.app.Commission.GetClick(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if role := middleware.GetUserRole(r.Context()); role != string(account.RoleAdmin) {
		if rec.AgentID != middleware.GetUserID(r.Context()) {
			h.writeErr(w, r, errors.Forbidden("not your click"))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.app.Commission.ListTransactions(r.Context(), h.agentFilter(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}

func (h *handler) overrideCommission(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RatePercent float64 `json:"rate_percent"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	result, err := h.app.Commission.OverrideCommission(r.Context(), mux.Vars(r)["id"], payload.RatePercent)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *handler) listPendingTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.app.Commission.ListPendingTransactions(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}

func (h *handler) approveTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.app.Commission.ApproveTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *handler) rejectTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.app.Commission.RejectTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

// ----- categories -----

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	rules, err := h.app.Categories.List(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rules)
}

func (h *handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var payload categories.Input
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	rule, err := h.app.Categories.Create(r.Context(), payload)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rule)
}

func (h *handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categories.Input
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	rule, err := h.app.Categories.Update(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

func (h *handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Categories.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- banners -----

func (h *handler) listBanners(w http.ResponseWriter, r *http.Request) {
	activeOnly := strings.EqualFold(r.URL.Query().Get("active"), "true")
	items, err := h.app.Banners.List(r.Context(), activeOnly)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *handler) createBanner(w http.ResponseWriter, r *http.Request) {
	var payload banners.Input
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	b, err := h.app.Banners.Create(r.Context(), payload)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *handler) updateBanner(w http.ResponseWriter, r *http.Request) {
	var payload banners.Input
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	b, err := h.app.Banners.Update(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *handler) deleteBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Banners.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- users -----

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.app.Accounts.List(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *handler) setUserRole(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role string `json:"role"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	u, err := h.app.Accounts.SetRole(r.Context(), mux.Vars(r)["id"], account.Role(payload.Role))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// ----- withdrawals -----

func (h *handler) createWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		httputil.Unauthorized(w, "")
		return
	}
	var payload withdrawals.Input
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeErr(w, r, err)
		return
	}
	req, err := h.app.Withdrawals.Create(r.Context(), userID, payload)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

func (h *handler) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.app.Withdrawals.List(r.Context(), h.agentFilter(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}

func (h *handler) approveWithdrawal(w http.ResponseWriter, r *http.Request) {
	req, err := h.app.Withdrawals.Approve(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *handler) rejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	req, err := h.app.Withdrawals.Reject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

// ----- audit -----

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	httputil.WriteJSON(w, http.StatusOK, h.audit.listLimit(limit))
}
