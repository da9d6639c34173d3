package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionsListInput is the input for flowlens_sessions_list.
type SessionsListInput struct{}

// SessionsListOutput is the output for flowlens_sessions_list.
type SessionsListOutput struct {
	Sessions []SessionInfo `json:"sessions,omitzero"`
}

// SessionInfo is a summary of a session.
type SessionInfo struct {
	SessionID    string `json:"session_id"`
	Name         string `json:"name"`
	EntryCount   int    `json:"entry_count"`
	IndexedCount int    `json:"indexed_count"`
}

// ToolSessionsList lists all capture sessions and how much of each is indexed.
func ToolSessionsList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SessionsListInput) (*sdkmcp.CallToolResult, SessionsListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SessionsListInput) (*sdkmcp.CallToolResult, SessionsListOutput, error) {
		if d.Source == nil {
			return nil, SessionsListOutput{}, &CodedError{Code: ErrCodeCaptureError, Message: "no capture source configured"}
		}
		sessions, err := d.Source.ListSessions(ctx)
		if err != nil {
			return nil, SessionsListOutput{}, WrapCaptureError(err)
		}

		output := SessionsListOutput{
			Sessions: make([]SessionInfo, len(sessions)),
		}
		for i, sess := range sessions {
			output.Sessions[i] = SessionInfo{
				SessionID:    sess.ID,
				Name:         sess.Name,
				EntryCount:   len(sess.EntryIDs),
				IndexedCount: d.Store.SessionSize(sess.ID),
			}
		}

		return nil, output, nil
	}
}
