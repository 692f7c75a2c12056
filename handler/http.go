package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chat-relay/internal/domain"
)

// Routes returns the HTTP router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(h.correlate)
	r.Use(h.logRequests)
	r.Use(h.recoverer)

	r.Get(pathHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})
	if h.metrics != nil {
		r.Method(http.MethodGet, pathMetrics, h.metrics)
	}

	r.Get(pathListModels, func(w http.ResponseWriter, r *http.Request) {
		writeOutcome(w, h.uc.ListModelsOutcome(r.Context()))
	})
	r.Get(pathTestKey, func(w http.ResponseWriter, r *http.Request) {
		writeOutcome(w, h.uc.TestCredentialOutcome(r.Context()))
	})
	r.Post(pathRoot, h.serveChat)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeOutcome(w, notFound())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeOutcome(w, methodNotAllowed())
	})
	return r
}

func (h *Handler) serveChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeOutcome(w, domain.Fail(http.StatusRequestEntityTooLarge, "Request body too large", nil))
			return
		}
		writeOutcome(w, domain.Fail(http.StatusBadRequest, "Invalid request body", nil))
		return
	}
	writeOutcome(w, h.chat(r.Context(), body))
}

func (h *Handler) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := correlationID(r.Header.Get(correlationHeader))
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r.WithContext(withCorrelationID(r.Context(), id)))
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.InfoContext(r.Context(), "request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"remote", r.RemoteAddr,
			"correlation_id", CorrelationID(r.Context()),
		)
	})
}

// recoverer turns a handler panic into a 500 failure envelope.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger.ErrorContext(r.Context(), "handler panicked",
				"panic", fmt.Sprint(rec),
				"path", r.URL.Path,
				"correlation_id", CorrelationID(r.Context()),
			)
			writeOutcome(w, domain.Fail(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), nil))
		}()
		next.ServeHTTP(w, r)
	})
}

func writeOutcome(w http.ResponseWriter, out domain.Outcome) {
	writeJSON(w, out.Status, out.Envelope)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
