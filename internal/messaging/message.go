// Package messaging is the boundary between the content side scanner and
// the host that runs the classifiers.
package messaging

import (
	"context"
	"encoding/json"
)

// Actions understood by the host
const (
	ActionAnalyzeEmail   = "analyzeEmail"
	ActionGetSettings    = "getSettings"
	ActionUpdateSettings = "updateSettings"
	ActionCheckAIStatus  = "checkAIStatus"
)

// Request is one message sent to the host
type Request struct {
	ID     string          `json:"id,omitempty"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Response is the host's answer. Result holds the verdict for
// analyzeEmail, the settings for getSettings and the status for
// checkAIStatus.
type Response struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// AIStatus is the result of checkAIStatus
type AIStatus struct {
	Ready bool `json:"ready"`
}

// Transport delivers requests to the host
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

func failure(err error) *Response {
	return &Response{Success: false, Error: err.Error()}
}

func success(result interface{}) *Response {
	if result == nil {
		return &Response{Success: true}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return failure(err)
	}
	return &Response{Success: true, Result: data}
}
