package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON body with the given status. Nil data writes the status alone.
func JSON(w http.ResponseWriter, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoStore writes a JSON body that carries token material and must not be cached
func NoStore(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	JSON(w, status, data)
}
