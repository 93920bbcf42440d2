package auth

import (
	"context"
	"net/http"
)

type contextKey string

const (
	merchantIDKey contextKey = "merchant_id"
	userIDKey     contextKey = "user_id"
)

// Middleware copies the identity headers set by the gateway into the request
// context. Requests without a merchant are rejected up front.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		merchantID := r.Header.Get("X-Merchant-Id")
		if merchantID == "" {
			http.Error(w, `{"error":"missing X-Merchant-Id header"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), merchantIDKey, merchantID)
		if userID := r.Header.Get("X-User-Id"); userID != "" {
			ctx = context.WithValue(ctx, userIDKey, userID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetMerchantID(ctx context.Context) string {
	if val, ok := ctx.Value(merchantIDKey).(string); ok {
		return val
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok {
		return val
	}
	return ""
}
