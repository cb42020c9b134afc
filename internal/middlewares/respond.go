package middlewares

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes an error response in the API's shared body
// shape, {"message": ...}
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
