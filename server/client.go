package server

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/xhd2015/clau/types"
)

// Result is what a finished /stream conversation produced
type Result struct {
	Messages         []types.Message
	LastAssistantMsg string
	SessionID        string
}

// StreamFromServer connects to a stream server and reads events until
// the end event. onMessage, if not nil, is called for every message
// as it arrives.
func StreamFromServer(ctx context.Context, server string, req StreamRequest, onMessage func(msg types.Message)) (*Result, error) {
	if req.Query == "" {
		return nil, &types.InvalidInputError{Msg: "query is empty"}
	}
	wsURL, err := streamURL(server, req)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WebSocket server: %w", err)
	}
	defer conn.Close()

	// unblock ReadJSON when ctx is done
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	var result Result
	for {
		var event Event
		err := conn.ReadJSON(&event)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("server closed before end of stream: %w", types.ErrStreamClosed)
			}
			return nil, fmt.Errorf("failed to read WebSocket message: %w", err)
		}

		switch event.Type {
		case EventType_Message:
			if event.Message == nil {
				continue
			}
			msg := *event.Message
			if msg.Type == types.MessageType_Assistant {
				result.LastAssistantMsg = msg.Content
			}
			if result.SessionID == "" && msg.SessionID != "" {
				result.SessionID = msg.SessionID
			}
			result.Messages = append(result.Messages, msg)
			if onMessage != nil {
				onMessage(msg)
			}
		case EventType_Error:
			return nil, fmt.Errorf("server error: %s", event.Error)
		case EventType_End:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return &result, nil
		}
	}
}

func streamURL(server string, req StreamRequest) (string, error) {
	serverURL, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if serverURL.Host == "" {
		return "", fmt.Errorf("invalid server URL: %q has no host", server)
	}

	// Convert http/https to ws/wss
	scheme := "ws"
	switch serverURL.Scheme {
	case "https", "wss":
		scheme = "wss"
	}

	wsURL := &url.URL{
		Scheme:   scheme,
		Host:     serverURL.Host,
		Path:     "/stream",
		RawQuery: req.Values().Encode(),
	}
	return wsURL.String(), nil
}
