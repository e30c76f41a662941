package network

import (
	"fmt"
	"math/rand"
	"sync"

	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
)

const (
	// ClientIDMaxRetries represents the maximum number of retries when generating a unique ID
	ClientIDMaxRetries = 1024
)

// Client is one WebSocket connection of a participant in a room.
type Client struct {
	ID            uint32
	RoomCode      string
	ParticipantID string
	WSConn        *websocket.Conn
	limiter       *rate.Limiter
}

// Allow reports whether the client may send another frame now.
func (c *Client) Allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}

type clientKey struct {
	room        string
	participant string
}

// ClientManager tracks the live connection of every participant.
// A participant has at most one connection per room; a newer one replaces the older.
type ClientManager struct {
	clients       map[uint32]*Client
	byParticipant map[clientKey]uint32
	clientsLock   sync.RWMutex
	rateLimit     rate.Limit
	burst         int
}

type NewClientManagerOptions struct {
	// RateLimit is the number of frames per second a client may send. Zero disables limiting.
	RateLimit rate.Limit
	Burst     int
}

// NewClientManager creates a new ClientManager
func NewClientManager(opts NewClientManagerOptions) *ClientManager {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &ClientManager{
		clients:       make(map[uint32]*Client),
		byParticipant: make(map[clientKey]uint32),
		rateLimit:     opts.RateLimit,
		burst:         opts.Burst,
	}
}

// ConnectClient registers a connection and returns it together with the connection it replaced, if any.
func (cm *ClientManager) ConnectClient(roomCode string, participantID string, conn *websocket.Conn) (*Client, *Client, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	clientID, err := cm.generateUniqueID(ClientIDMaxRetries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	client := &Client{
		ID:            clientID,
		RoomCode:      roomCode,
		ParticipantID: participantID,
		WSConn:        conn,
	}
	if cm.rateLimit > 0 {
		client.limiter = rate.NewLimiter(cm.rateLimit, cm.burst)
	}

	key := clientKey{room: roomCode, participant: participantID}
	var replaced *Client
	if previousID, ok := cm.byParticipant[key]; ok {
		replaced = cm.clients[previousID]
		delete(cm.clients, previousID)
	}
	cm.clients[clientID] = client
	cm.byParticipant[key] = clientID

	return client, replaced, nil
}

// DisconnectClient removes a client from the manager.
// It reports whether the client was still the participant's current connection.
func (cm *ClientManager) DisconnectClient(clientID uint32) bool {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	client, ok := cm.clients[clientID]
	if !ok {
		return false
	}
	delete(cm.clients, clientID)

	key := clientKey{room: client.RoomCode, participant: client.ParticipantID}
	if cm.byParticipant[key] == clientID {
		delete(cm.byParticipant, key)
	}
	return true
}

// GetClients returns the clients connected to a room.
func (cm *ClientManager) GetClients(roomCode string) []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, 2)
	for _, client := range cm.clients {
		if client.RoomCode == roomCode {
			clients = append(clients, client)
		}
	}
	return clients
}

func (cm *ClientManager) Exists(clientID uint32) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

// generateUniqueID generates a unique client ID with a maximum number of retries
// it reads from the clients, so it needs to be locked before calling
func (cm *ClientManager) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := rand.Uint32()
		if id == 0 {
			continue
		}
		if _, ok := cm.clients[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
