package middleware

import (
	"encoding/json"
	"net/http"
)

const realm = `Bearer realm="notify"`

// reject answers with the same {"error": msg} body the handlers use. A 401
// also names the auth scheme so clients know to log in again.
func reject(w http.ResponseWriter, status int, msg string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", realm)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
