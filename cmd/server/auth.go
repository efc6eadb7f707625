package main

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// requireToken rejects requests whose Authorization header does not carry
// the configured bearer token
func requireToken(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				respondError(w, http.StatusUnauthorized, "Authentication failed", nil)
				return
			}

			got := []byte(strings.TrimPrefix(header, bearerPrefix))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				respondError(w, http.StatusUnauthorized, "Authentication failed", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
