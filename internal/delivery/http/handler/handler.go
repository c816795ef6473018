package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/article-crawler/internal/delivery/http/request"
	"github.com/user/article-crawler/internal/delivery/http/response"
	"github.com/user/article-crawler/internal/repository"
	"github.com/user/article-crawler/internal/usecase"
)

type Handler struct {
	crawl       usecase.CrawlService
	serviceName string
	logger      *zap.Logger
}

func NewHandler(crawl usecase.CrawlService, serviceName string, logger *zap.Logger) *Handler {
	return &Handler{
		crawl:       crawl,
		serviceName: serviceName,
		logger:      logger,
	}
}

func (h *Handler) HandleListArticles(w http.ResponseWriter, r *http.Request) {
	q, err := request.ParseArticleQuery(r.URL.Query())
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.crawl.List(q))
}

func (h *Handler) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := h.crawl.Detail(chi.URLParam(r, "id"))
	if !ok {
		h.writeJSONError(w, "Article not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, article)
}

func (h *Handler) HandleTriggerCrawl(w http.ResponseWriter, r *http.Request) {
	maxPages, err := request.ParseMaxPages(r.URL.Query())
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxPages, err = h.crawl.Trigger(r.Context(), maxPages)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidMaxPages):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, repository.ErrCrawlInProgress):
			h.writeJSONError(w, "A crawl is already running, try again later", http.StatusConflict)
		default:
			h.logger.Error("failed to start crawl", zap.Int("max_pages", maxPages), zap.Error(err))
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := response.CrawlAcceptedResponse{
		Message:   fmt.Sprintf("Crawl started for up to %d pages", maxPages),
		MaxPages:  maxPages,
		Timestamp: time.Now(),
		Note:      "The crawl runs in the background, poll the status endpoint for progress",
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := response.ServiceStatusResponse{
		Service:     h.serviceName,
		CacheStatus: response.NewCacheStatus(h.crawl.Status()),
		Endpoints: map[string]string{
			"list":     "/api/articles",
			"detail":   "/api/articles/{id}",
			"crawl":    "/api/articles/crawl",
			"status":   "/api/articles/status",
			"clear":    "/api/articles/cache/clear",
			"failures": "/api/articles/failures",
		},
		Timestamp: time.Now(),
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.crawl.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear cache", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.MessageResponse{Message: "Cache cleared", Timestamp: time.Now()})
}

func (h *Handler) HandleListFailures(w http.ResponseWriter, r *http.Request) {
	limit, err := request.ParseFailureLimit(r.URL.Query())
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := h.crawl.Failures(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list failed items", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewFailedItems(items))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
