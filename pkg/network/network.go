package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	authproviders "github.com/cbodonnell/memorymatch/pkg/auth/providers"
	"github.com/cbodonnell/memorymatch/pkg/game"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/messages"
	"github.com/cbodonnell/memorymatch/pkg/rooms"
	"github.com/cbodonnell/memorymatch/pkg/transport"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

const (
	// WriteTimeout bounds a single frame write to a client.
	WriteTimeout = 5 * time.Second
	// MaxFrameSize is the largest frame accepted from a client.
	MaxFrameSize = 16 * 1024
)

// ErrBadFrame is returned for frames that cannot be decoded as a message.
var ErrBadFrame = errors.New("bad frame")

// RoomLookup reports the current state of a room.
type RoomLookup interface {
	Status(ctx context.Context, code string) (types.RoomSnapshot, error)
}

// NetworkManager bridges browser WebSocket connections onto the room topics.
// Frames from a client are republished as intents; room events are forwarded to the client.
type NetworkManager struct {
	AuthProvider  authproviders.AuthProvider
	ClientManager *ClientManager
	Bus           transport.Bus
	Rooms         RoomLookup
}

type NewNetworkManagerOptions struct {
	AuthProvider  authproviders.AuthProvider
	ClientManager *ClientManager
	Bus           transport.Bus
	Rooms         RoomLookup
}

func NewNetworkManager(opts NewNetworkManagerOptions) *NetworkManager {
	if opts.ClientManager == nil {
		opts.ClientManager = NewClientManager(NewClientManagerOptions{})
	}
	return &NetworkManager{
		AuthProvider:  opts.AuthProvider,
		ClientManager: opts.ClientManager,
		Bus:           opts.Bus,
		Rooms:         opts.Rooms,
	}
}

// Handler returns the HTTP handler serving /ws.
func (n *NetworkManager) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", n.handleConnect)
	return mux
}

func (n *NetworkManager) handleConnect(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.URL.Query().Get("room"))
	participantID := r.URL.Query().Get("participant")

	if n.AuthProvider != nil {
		token, err := n.AuthProvider.VerifyToken(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			log.Error("failed to verify ID token: %v", err)
			http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
			return
		}
		participantID = token.UID
	}

	if roomCode == "" || participantID == "" {
		http.Error(w, "room and participant are required", http.StatusBadRequest)
		return
	}
	if err := game.CheckParticipantID(participantID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := n.Rooms.Status(r.Context(), roomCode)
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		log.Error("failed to get room %s: %v", roomCode, err)
		http.Error(w, "failed to get room", http.StatusInternalServerError)
		return
	}
	if snapshot.Phase == types.PhaseAbandoned {
		http.Error(w, "room is closed", http.StatusConflict)
		return
	}
	if !contains(snapshot.Participants, participantID) {
		http.Error(w, "not a participant of this room", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	conn.SetReadLimit(MaxFrameSize)

	client, replaced, err := n.ClientManager.ConnectClient(roomCode, participantID, conn)
	if err != nil {
		log.Error("Failed to connect client: %v", err)
		conn.Close(websocket.StatusInternalError, "failed to connect")
		return
	}
	if replaced != nil {
		replaced.WSConn.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
	}
	log.Room(roomCode).Debug("Participant %s connected as client %d from %s", participantID, client.ID, r.RemoteAddr)

	n.serve(r.Context(), client)
}

// serve forwards traffic for one client until its connection ends.
func (n *NetworkManager) serve(ctx context.Context, client *Client) {
	ctx, cancel := context.WithCancel(ctx)
	logger := log.Room(client.RoomCode)

	unsubscribe, err := n.Bus.Subscribe(messages.EventsTopic(client.RoomCode), func(_ string, payload []byte) {
		if err := WriteMessageToWS(ctx, client.WSConn, payload); err != nil {
			logger.Debug("Failed to forward event to client %d: %v", client.ID, err)
		}
	})
	if err != nil {
		cancel()
		logger.Error("Failed to subscribe client %d to events: %v", client.ID, err)
		client.WSConn.Close(websocket.StatusInternalError, "failed to subscribe")
		n.ClientManager.DisconnectClient(client.ID)
		return
	}

	left := false
	defer func() {
		unsubscribe()
		cancel()
		if n.ClientManager.DisconnectClient(client.ID) && !left {
			n.handleDisconnect(client)
		}
		client.WSConn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msg, err := ReadMessageFromWS(ctx, client.WSConn)
		if err != nil {
			if errors.Is(err, ErrBadFrame) {
				logger.Warn("Dropped frame from client %d: %v", client.ID, err)
				continue
			}
			if !isClosed(err) {
				logger.Debug("Error reading WebSocket message from client %d: %v", client.ID, err)
			}
			return
		}

		if !client.Allow() {
			logger.Debug("Rate limited %s from client %d", msg.Type, client.ID)
			continue
		}

		if err := n.handleIntent(ctx, client, msg); err != nil {
			logger.Warn("Failed to handle intent from client %d: %v", client.ID, err)
			continue
		}
		if msg.Type == messages.MessageTypeLeave {
			left = true
			return
		}
	}
}

// handleIntent republishes a client frame on the room's intents topic.
// Sender and room are taken from the connection, never from the frame.
func (n *NetworkManager) handleIntent(ctx context.Context, client *Client, msg *messages.Message) error {
	msg.SenderID = client.ParticipantID
	msg.Room = client.RoomCode
	msg.Seq = 0
	if msg.MsgID == "" {
		msg.MsgID = uuid.NewString()
	}
	if _, err := messages.CommandFromMessage(msg); err != nil {
		return err
	}
	return n.publishIntent(ctx, msg)
}

// handleDisconnect treats a dropped connection as a departure.
func (n *NetworkManager) handleDisconnect(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()

	msg, err := messages.NewMessage(client.ParticipantID, messages.MessageTypeLeave, client.RoomCode, 0, nil)
	if err != nil {
		log.Room(client.RoomCode).Error("Failed to build leave for %s: %v", client.ParticipantID, err)
		return
	}
	if err := n.publishIntent(ctx, msg); err != nil {
		log.Room(client.RoomCode).Error("Failed to publish leave for %s: %v", client.ParticipantID, err)
		return
	}
	log.Room(client.RoomCode).Info("Participant %s disconnected", client.ParticipantID)
}

func (n *NetworkManager) publishIntent(ctx context.Context, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}
	if err := n.Bus.Publish(ctx, messages.IntentsTopic(msg.Room), b); err != nil {
		return fmt.Errorf("failed to publish intent: %v", err)
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
