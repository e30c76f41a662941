package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cbodonnell/memorymatch/pkg/api/handlers"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
)

// Lobby creates and joins rooms through the HTTP side-channel.
type Lobby struct {
	baseURL string
	token   string
	client  *http.Client
}

type NewLobbyOptions struct {
	BaseURL string
	// Token is an optional bearer token sent with every request.
	Token  string
	Client *http.Client
}

func NewLobby(opts NewLobbyOptions) *Lobby {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	return &Lobby{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		client:  opts.Client,
	}
}

// CreateRoom opens a room. An empty participant id asks the server to issue one.
func (l *Lobby) CreateRoom(ctx context.Context, participantID string, difficulty types.Difficulty) (*handlers.RoomResponse, error) {
	body := map[string]string{"participantId": participantID, "difficulty": string(difficulty)}
	res := &handlers.RoomResponse{}
	if err := l.do(ctx, http.MethodPost, "/rooms", body, http.StatusCreated, res); err != nil {
		return nil, fmt.Errorf("failed to create room: %v", err)
	}
	return res, nil
}

// JoinRoom joins a room by code.
func (l *Lobby) JoinRoom(ctx context.Context, code string, participantID string) (*handlers.RoomResponse, error) {
	body := map[string]string{"participantId": participantID}
	res := &handlers.RoomResponse{}
	if err := l.do(ctx, http.MethodPost, "/rooms/"+code+"/join", body, http.StatusOK, res); err != nil {
		return nil, fmt.Errorf("failed to join room %s: %v", code, err)
	}
	return res, nil
}

// Status fetches the current state of a room.
func (l *Lobby) Status(ctx context.Context, code string) (*types.RoomSnapshot, error) {
	res := &types.RoomSnapshot{}
	if err := l.do(ctx, http.MethodGet, "/rooms/"+code, nil, http.StatusOK, res); err != nil {
		return nil, fmt.Errorf("failed to get room %s: %v", code, err)
	}
	return res, nil
}

func (l *Lobby) do(ctx context.Context, method string, path string, body interface{}, expected int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}
