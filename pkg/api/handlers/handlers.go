package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/rooms"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 16

// decodeBody decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

// statusForRoomError maps room errors to HTTP status codes.
func statusForRoomError(err error) int {
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, rooms.ErrRoomFull), errors.Is(err, rooms.ErrRoomClosed):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeRoomError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForRoomError(err))
}
