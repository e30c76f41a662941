package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cbodonnell/memorymatch/pkg/api/middleware"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/rooms"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RoomService is the room lifecycle the HTTP side-channel drives.
type RoomService interface {
	CreateRoom(ctx context.Context, creatorID string, difficulty types.Difficulty) (types.RoomSnapshot, error)
	JoinRoom(ctx context.Context, code string, participantID string) (types.RoomSnapshot, error)
	Status(ctx context.Context, code string) (types.RoomSnapshot, error)
	LeaveRoom(ctx context.Context, code string, participantID string) (rooms.LeaveResult, error)
}

type participantRequest struct {
	ParticipantID string `json:"participantId"`
}

type createRoomRequest struct {
	ParticipantID string `json:"participantId"`
	Difficulty    string `json:"difficulty"`
}

// RoomResponse carries the participant id the caller must use for intents.
type RoomResponse struct {
	ParticipantID string             `json:"participantId"`
	Room          types.RoomSnapshot `json:"room"`
}

// participantFor resolves who is calling: the verified token wins, then the
// requested id, then a freshly issued one when allowed.
func participantFor(r *http.Request, requested string, issue bool) (string, error) {
	if id, ok := middleware.ParticipantFromContext(r.Context()); ok {
		return id, nil
	}
	if requested != "" {
		return requested, nil
	}
	if issue {
		return uuid.NewString(), nil
	}
	return "", fmt.Errorf("participantId is required")
}

func roomCode(r *http.Request) string {
	return strings.ToUpper(mux.Vars(r)["code"])
}

func HandleCreateRoom(service RoomService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &createRoomRequest{}
		if err := decodeBody(r, req); err != nil {
			http.Error(w, "Failed to decode request", http.StatusBadRequest)
			return
		}
		participantID, err := participantFor(r, req.ParticipantID, true)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		snapshot, err := service.CreateRoom(r.Context(), participantID, types.Difficulty(req.Difficulty))
		if err != nil {
			log.Debug("failed to create room: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, RoomResponse{ParticipantID: participantID, Room: snapshot})
	}
}

func HandleJoinRoom(service RoomService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &participantRequest{}
		if err := decodeBody(r, req); err != nil {
			http.Error(w, "Failed to decode request", http.StatusBadRequest)
			return
		}
		participantID, err := participantFor(r, req.ParticipantID, true)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		snapshot, err := service.JoinRoom(r.Context(), roomCode(r), participantID)
		if err != nil {
			log.Debug("failed to join room: %v", err)
			writeRoomError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, RoomResponse{ParticipantID: participantID, Room: snapshot})
	}
}

func HandleGetRoom(service RoomService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := service.Status(r.Context(), roomCode(r))
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func HandleLeaveRoom(service RoomService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &participantRequest{}
		if err := decodeBody(r, req); err != nil {
			http.Error(w, "Failed to decode request", http.StatusBadRequest)
			return
		}
		participantID, err := participantFor(r, req.ParticipantID, false)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, err := service.LeaveRoom(r.Context(), roomCode(r), participantID); err != nil {
			log.Debug("failed to leave room: %v", err)
			writeRoomError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
