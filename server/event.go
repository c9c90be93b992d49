package server

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/xhd2015/clau/types"
)

type EventType string

const (
	EventType_Message EventType = "message"
	EventType_End     EventType = "end"
	EventType_Error   EventType = "error"
)

// Event is one frame written to the /stream socket
type Event struct {
	Type    EventType      `json:"type"`
	Message *types.Message `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Time    time.Time      `json:"time"`
}

// StreamRequest is carried in the query string of /stream
type StreamRequest struct {
	Query        string
	Model        string
	SystemPrompt string

	// Format defaults to stream-json so that messages
	// are delivered as they are produced
	Format    types.StreamFormat
	SessionID types.SessionID
}

// Values encodes the request as URL parameters
func (r StreamRequest) Values() url.Values {
	values := url.Values{}
	values.Set("query", r.Query)
	if r.Model != "" {
		values.Set("model", r.Model)
	}
	if r.SystemPrompt != "" {
		values.Set("system_prompt", r.SystemPrompt)
	}
	if r.Format != "" {
		values.Set("format", string(r.Format))
	}
	if r.SessionID != "" {
		values.Set("session_id", string(r.SessionID))
	}
	return values
}

func parseStreamRequest(r *http.Request) (StreamRequest, error) {
	q := r.URL.Query()
	req := StreamRequest{
		Query:        q.Get("query"),
		Model:        q.Get("model"),
		SystemPrompt: q.Get("system_prompt"),
		SessionID:    types.SessionID(q.Get("session_id")),
		Format:       types.StreamFormat_StreamJSON,
	}
	if req.Query == "" {
		return StreamRequest{}, fmt.Errorf("requires query")
	}
	if f := q.Get("format"); f != "" {
		format, err := types.ParseStreamFormat(f)
		if err != nil {
			return StreamRequest{}, err
		}
		req.Format = format
	}
	return req, nil
}
