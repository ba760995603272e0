package controller

import (
	"net/http"

	"niederschlag-server/internal/utils"
)

// writeCollection answers 200 with the JSON array, or 204 without a body
// when the collection is empty.
func writeCollection(w http.ResponseWriter, v any, n int) {
	if n == 0 {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}
