// Package httpserver is the mini-app API surface. It owns routing,
// authentication of signed init data, admin token checks and the
// mapping from domain errors to HTTP statuses.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	adservice "adboard/contexts/marketplace/ad-service"
	httpadapter "adboard/contexts/marketplace/ad-service/adapters/http"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/domain/validate"
	httptransport "adboard/contexts/marketplace/ad-service/transport/http"
	"adboard/internal/platform/photostore"
	"adboard/internal/platform/ratelimit"
	"adboard/internal/platform/telegram"
)

const initDataHeader = "X-Telegram-Init-Data"

type Server struct {
	mux        *http.ServeMux
	logger     zerolog.Logger
	addr       string
	module     adservice.Module
	photos     *photostore.Store
	limiter    *ratelimit.Limiter
	botToken   string
	adminToken string
	adminIDs   []int64
}

func New(
	module adservice.Module,
	photos *photostore.Store,
	limiter *ratelimit.Limiter,
	logger zerolog.Logger,
	addr string,
	botToken string,
	adminToken string,
	adminIDs []int64,
) *Server {
	if addr == "" {
		addr = ":8080"
	}
	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		module:     module,
		photos:     photos,
		limiter:    limiter,
		botToken:   botToken,
		adminToken: adminToken,
		adminIDs:   adminIDs,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("event", "http_server_starting").
		Str("module", "internal/platform/httpserver").
		Str("layer", "platform").
		Str("addr", s.addr).
		Msg("http server starting")
	return http.ListenAndServe(s.addr, corsMiddleware(s.mux))
}

func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/ads", s.handleSubmitAd)
	s.mux.HandleFunc("GET /api/ads/{kind}", s.handleListAds)
	s.mux.HandleFunc("GET /api/ads/{kind}/{id}", s.handleGetAd)
	s.mux.HandleFunc("PUT /api/ads/{kind}/{id}", s.handleEditAd)
	s.mux.HandleFunc("DELETE /api/ads/{kind}/{id}", s.handleDeleteAd)
	s.mux.HandleFunc("POST /api/ads/{kind}/{id}/sold", s.handleMarkSold)

	s.mux.HandleFunc("POST /api/ads/{kind}/{id}/favorite", s.handleAddFavorite)
	s.mux.HandleFunc("DELETE /api/ads/{kind}/{id}/favorite", s.handleRemoveFavorite)
	s.mux.HandleFunc("GET /api/favorites", s.handleListFavorites)

	s.mux.HandleFunc("GET /api/profile", s.handleProfile)
	s.mux.HandleFunc("GET /api/my-ads", s.handleMyAds)

	s.mux.HandleFunc("GET /api/brands", s.handleBrands)
	s.mux.HandleFunc("GET /api/brands/{brand}/models", s.handleModels)
	s.mux.HandleFunc("GET /api/cities/{kind}", s.handleCities)

	s.mux.HandleFunc("POST /api/photos", s.handleUploadPhoto)
	s.mux.HandleFunc("GET /api/photos/{ref}", s.handleServePhoto)

	s.mux.HandleFunc("GET /api/admin/ads/pending", s.adminOnly(s.handlePendingAds))
	s.mux.HandleFunc("GET /api/admin/stats", s.adminOnly(s.handleStats))
	s.mux.HandleFunc("POST /api/admin/ads/{kind}/{id}/approve", s.adminOnly(s.handleApproveAd))
	s.mux.HandleFunc("POST /api/admin/ads/{kind}/{id}/reject", s.adminOnly(s.handleRejectAd))
}

// caller authenticates the request from its signed init data header.
func (s *Server) caller(r *http.Request) (httpadapter.Caller, bool) {
	user, err := telegram.ValidateInitData(r.Header.Get(initDataHeader), s.botToken)
	if err != nil {
		return httpadapter.Caller{}, false
	}
	return httpadapter.Caller{
		TelegramID: user.ID,
		Username:   user.Username,
		FullName:   user.FullName(),
	}, true
}

// viewerID is the optional variant for public reads: an absent or
// invalid header just means an anonymous viewer.
func (s *Server) viewerID(r *http.Request) int64 {
	user, err := telegram.ValidateInitData(r.Header.Get(initDataHeader), s.botToken)
	if err != nil {
		return 0
	}
	return user.ID
}

// adminOnly guards moderation endpoints. A static admin token or the
// init data of a configured admin account both pass.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" && r.Header.Get("X-Admin-Token") == s.adminToken {
			next(w, r)
			return
		}
		if caller, ok := s.caller(r); ok {
			for _, id := range s.adminIDs {
				if id == caller.TelegramID {
					next(w, r)
					return
				}
			}
		}
		writeError(w, http.StatusForbidden, "admin access required")
	}
}

func (s *Server) handleSubmitAd(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	var req httptransport.SubmitAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.module.Handler.SubmitAdHandler(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAds(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	resp, err := s.module.Handler.ListAdsHandler(
		r.Context(),
		r.PathValue("kind"),
		query.Get("brand"),
		query.Get("model"),
		query.Get("city"),
		offset,
		limit,
	)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAd(w http.ResponseWriter, r *http.Request) {
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	resp, err := s.module.Handler.GetAdHandler(r.Context(), s.viewerID(r), r.PathValue("kind"), adID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEditAd(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	var req httptransport.EditAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.module.Handler.EditAdHandler(r.Context(), caller, r.PathValue("kind"), adID, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAd(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.module.Handler.DeleteAdHandler(r.Context(), caller, r.PathValue("kind"), adID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httptransport.StatusResponse{Status: "deleted"})
}

func (s *Server) handleMarkSold(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.module.Handler.MarkSoldHandler(r.Context(), caller, r.PathValue("kind"), adID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httptransport.StatusResponse{Status: "sold"})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.module.Handler.AddFavoriteHandler(r.Context(), caller, r.PathValue("kind"), adID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, httptransport.StatusResponse{Status: "added"})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.module.Handler.RemoveFavoriteHandler(r.Context(), caller, r.PathValue("kind"), adID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httptransport.StatusResponse{Status: "removed"})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	resp, err := s.module.Handler.ListFavoritesHandler(r.Context(), caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	resp, err := s.module.Handler.ProfileHandler(r.Context(), caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMyAds(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	resp, err := s.module.Handler.MyAdsHandler(r.Context(), caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	resp, err := s.module.Handler.BrandsHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp, err := s.module.Handler.ModelsHandler(r.Context(), r.PathValue("brand"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	resp, err := s.module.Handler.CitiesHandler(r.Context(), r.PathValue("kind"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePendingAds(w http.ResponseWriter, r *http.Request) {
	resp, err := s.module.Handler.PendingAdsHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.module.Handler.StatsHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveAd(w http.ResponseWriter, r *http.Request) {
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.module.Handler.ApproveAdHandler(r.Context(), r.PathValue("kind"), adID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httptransport.StatusResponse{Status: "approved"})
}

func (s *Server) handleRejectAd(w http.ResponseWriter, r *http.Request) {
	adID, ok := parseID(w, r)
	if !ok {
		return
	}
	var req httptransport.RejectAdRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := s.module.Handler.RejectAdHandler(r.Context(), r.PathValue("kind"), adID, req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httptransport.StatusResponse{Status: "rejected"})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	adID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || adID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid ad id")
		return 0, false
	}
	return adID, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *validate.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, httptransport.ErrorResponse{
			Error:      "validation failed",
			Violations: validationErr.Violations,
		})
		return
	}
	switch {
	case errors.Is(err, domainerrors.ErrAdNotFound),
		errors.Is(err, domainerrors.ErrUserNotFound),
		errors.Is(err, domainerrors.ErrFavoriteNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domainerrors.ErrForbidden),
		errors.Is(err, domainerrors.ErrUserBanned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateAd),
		errors.Is(err, domainerrors.ErrCannotEditTerminal),
		errors.Is(err, domainerrors.ErrFavoriteExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domainerrors.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domainerrors.ErrInvalidAdKind):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("unhandled domain error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, httptransport.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// corsMiddleware lets the hosted mini-app front end call the API from
// its own origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Telegram-Init-Data, X-Admin-Token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
