package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yourusername/captchacache/core"
	"github.com/yourusername/captchacache/pkg/captchacache"
)

// KeyFunc extracts the captcha site key from the request
type KeyFunc func(*http.Request) string

// VisitorAdder records a visitor for a captcha. *captchacache.Conn implements it.
type VisitorAdder interface {
	AddVisitor(ctx context.Context, req core.AddVisitorRequest) (*core.AddVisitorResult, error)
}

// VisitorCounter provides HTTP middleware that counts every request as a
// visitor of the captcha named by the request and publishes the difficulty
// the client must solve.
type VisitorCounter struct {
	cache   VisitorAdder
	keyFunc KeyFunc
}

// Config for creating a visitor counter
type Config struct {
	Cache   VisitorAdder // Required
	KeyFunc KeyFunc      // Optional: custom site key extraction
}

// NewVisitorCounter creates a new visitor counting middleware
func NewVisitorCounter(config Config) *VisitorCounter {
	if config.KeyFunc == nil {
		config.KeyFunc = defaultKeyFunc
	}

	return &VisitorCounter{
		cache:   config.Cache,
		keyFunc: config.KeyFunc,
	}
}

// defaultKeyFunc reads the site key from a header, then the query string
func defaultKeyFunc(r *http.Request) string {
	if key := r.Header.Get("X-Captcha-Sitekey"); key != "" {
		return key
	}
	return r.URL.Query().Get("sitekey")
}

// Middleware wraps an http.Handler with visitor counting
func (vc *VisitorCounter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := vc.keyFunc(r)
		if key == "" {
			writeError(w, http.StatusBadRequest, "missing_sitekey", "A captcha site key is required.")
			return
		}

		result, err := vc.cache.AddVisitor(r.Context(), core.AddVisitorRequest{ID: key})
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, captchacache.ErrExtensionProtocol) || errors.Is(err, captchacache.ErrDeserialization) {
				status = http.StatusBadGateway
			}
			writeError(w, status, "captcha_unavailable", "Could not record visitor.")
			return
		}

		if result != nil {
			w.Header().Set("X-Captcha-Difficulty", strconv.FormatUint(uint64(result.DifficultyFactor), 10))
			w.Header().Set("X-Captcha-Duration", strconv.FormatUint(result.Duration, 10))
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
