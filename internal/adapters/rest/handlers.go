package rest

import (
	"encoding/json"
	"errors"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/contracts"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
	"favorites-sync/internal/core/port/usecases_port"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

// FavoritesHandler - HTTP-обработчики операций с избранным.
type FavoritesHandler struct {
	getUC       usecases_port.GetFavoritesUseCasePort
	projectedUC usecases_port.GetProjectedFavoritesUseCasePort
	addUC       usecases_port.AddFavoriteUseCasePort
	removeUC    usecases_port.RemoveFavoriteUseCasePort
	pendingUC   usecases_port.GetPendingActionsUseCasePort
	replayUC    usecases_port.ReplayQueueUseCasePort
	identity    port.IdentityProviderPort
	oracle      port.ConnectivityOraclePort
}

type FavoritesHandlerDeps struct {
	Get       usecases_port.GetFavoritesUseCasePort
	Projected usecases_port.GetProjectedFavoritesUseCasePort
	Add       usecases_port.AddFavoriteUseCasePort
	Remove    usecases_port.RemoveFavoriteUseCasePort
	Pending   usecases_port.GetPendingActionsUseCasePort
	Replay    usecases_port.ReplayQueueUseCasePort
	Identity  port.IdentityProviderPort
	Oracle    port.ConnectivityOraclePort
}

func NewFavoritesHandler(deps FavoritesHandlerDeps) (*FavoritesHandler, error) {
	if deps.Get == nil || deps.Projected == nil || deps.Add == nil || deps.Remove == nil ||
		deps.Pending == nil || deps.Replay == nil || deps.Identity == nil || deps.Oracle == nil {
		return nil, errors.New("rest: all favorites handler dependencies are required")
	}
	return &FavoritesHandler{
		getUC:       deps.Get,
		projectedUC: deps.Projected,
		addUC:       deps.Add,
		removeUC:    deps.Remove,
		pendingUC:   deps.Pending,
		replayUC:    deps.Replay,
		identity:    deps.Identity,
		oracle:      deps.Oracle,
	}, nil
}

// userFromRequest возвращает пользователя или пишет 401.
func (h *FavoritesHandler) userFromRequest(w http.ResponseWriter, r *http.Request, logger port.LoggerPort) (string, bool) {
	userID, err := h.identity.CurrentUserID(r.Context())
	if err != nil {
		logger.Warn("Request without authenticated user", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return userID, true
}

func (h *FavoritesHandler) writeUseCaseError(w http.ResponseWriter, logger port.LoggerPort, msg string, err error) {
	status, message := statusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, port.Fields{"status_code": status})
	} else {
		logger.Warn(msg, port.Fields{"status_code": status, "error": err.Error()})
	}
	WriteJSONError(w, status, message)
}

// GetFavorites обрабатывает GET /api/v1/favorites[?projected=true]
func (h *FavoritesHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetFavorites"})
	userID, ok := h.userFromRequest(w, r, logger)
	if !ok {
		return
	}

	projected := false
	if raw := r.URL.Query().Get("projected"); raw != "" {
		var err error
		if projected, err = strconv.ParseBool(raw); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "Invalid projected parameter")
			return
		}
	}

	handlerLogger := logger.WithFields(port.Fields{"user_id": userID, "projected": projected})

	var (
		favorites []domain.Favorite
		err       error
	)
	if projected {
		favorites, err = h.projectedUC.Execute(r.Context(), userID)
	} else {
		favorites, err = h.getUC.Execute(r.Context(), userID)
	}
	if err != nil {
		h.writeUseCaseError(w, handlerLogger, "Get favorites failed", err)
		return
	}

	RespondWithJSON(w, http.StatusOK, toFavoritesResponse(favorites, h.oracle.IsOnline(r.Context()), projected))
}

// AddFavorite обрабатывает POST /api/v1/favorites
func (h *FavoritesHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddFavorite"})
	userID, ok := h.userFromRequest(w, r, logger)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := contracts.Validate(contracts.AddFavoriteRequest, body); err != nil {
		logger.Warn("Add favorite request rejected by schema", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req AddFavoriteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"user_id": userID, "symbol": req.Symbol})
	if err := h.addUC.Execute(r.Context(), userID, req.toDomain()); err != nil {
		h.writeUseCaseError(w, handlerLogger, "Add favorite failed", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// RemoveFavorite обрабатывает DELETE /api/v1/favorites/{symbol}
func (h *FavoritesHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RemoveFavorite"})
	userID, ok := h.userFromRequest(w, r, logger)
	if !ok {
		return
	}

	symbol := chi.URLParam(r, "symbol")
	handlerLogger := logger.WithFields(port.Fields{"user_id": userID, "symbol": symbol})
	if err := h.removeUC.Execute(r.Context(), userID, domain.Favorite{Symbol: symbol}); err != nil {
		h.writeUseCaseError(w, handlerLogger, "Remove favorite failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPending обрабатывает GET /api/v1/favorites/pending
func (h *FavoritesHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetPending"})
	userID, ok := h.userFromRequest(w, r, logger)
	if !ok {
		return
	}

	actions, err := h.pendingUC.Execute(r.Context(), userID)
	if err != nil {
		h.writeUseCaseError(w, logger.WithFields(port.Fields{"user_id": userID}), "Get pending actions failed", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPendingActionsResponse(actions))
}

// Sync обрабатывает POST /api/v1/favorites/sync. Частичный сбой - 202:
// оставшиеся шаги сохранены и будут воспроизведены позже.
func (h *FavoritesHandler) Sync(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Sync"})
	userID, ok := h.userFromRequest(w, r, logger)
	if !ok {
		return
	}
	handlerLogger := logger.WithFields(port.Fields{"user_id": userID})

	if !h.oracle.IsOnline(r.Context()) {
		WriteJSONError(w, http.StatusServiceUnavailable, "Offline, sync postponed")
		return
	}

	report, err := h.replayUC.Execute(r.Context(), userID)
	resp := SyncResponse{Total: report.Total, Applied: report.Applied, Remaining: report.Remaining}
	switch {
	case err == nil:
		RespondWithJSON(w, http.StatusOK, resp)
	case errors.Is(err, domain.ErrReplayPartialFailure):
		handlerLogger.Warn("Sync stopped early", port.Fields{"error": err.Error(), "remaining": report.Remaining})
		resp.Error = err.Error()
		RespondWithJSON(w, http.StatusAccepted, resp)
	default:
		h.writeUseCaseError(w, handlerLogger, "Sync failed", err)
	}
}

// Connectivity обрабатывает GET /api/v1/connectivity
func (h *FavoritesHandler) Connectivity(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, ConnectivityResponse{Online: h.oracle.IsOnline(r.Context())})
}
