package blob

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
)

type Handler struct {
	store  *FSStore
	logger *zap.Logger
}

func NewHandler(store *FSStore, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/blobs/{bucket}/{key}", h.ServeSigned)
	r.Get("/public/{bucket}/{key}", h.ServePublic)
}

// ServeSigned streams a private object to holders of a valid signed URL.
func (h *Handler) ServeSigned(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(h.logger, r)
	bucket, key := chi.URLParam(r, "bucket"), chi.URLParam(r, "key")

	if err := h.store.Verify(r.URL.Query().Get("token"), bucket, key); err != nil {
		logger.Warn("rejected blob signature", zap.String("bucket", bucket), zap.Error(err))
		httpjson.WriteError(w, traceID, apperrors.NewForbiddenError("link is invalid or has expired"), logger)
		return
	}
	h.serve(w, r, traceID, bucket, key, logger)
}

func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(h.logger, r)
	bucket, key := chi.URLParam(r, "bucket"), chi.URLParam(r, "key")

	if !h.store.IsPublic(bucket) {
		httpjson.WriteError(w, traceID, apperrors.NewNotFoundError("object not found"), logger)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	h.serve(w, r, traceID, bucket, key, logger)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, traceID, bucket, key string, logger *zap.Logger) {
	f, err := h.store.Open(bucket, key)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, key, info.ModTime(), f)
}
