package inspect

import "time"

// SessionCreateResponse is returned after a session is created.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse is a session's current observable state.
type SessionStatusResponse struct {
	SessionID  string `json:"sessionId"`
	PC         uint64 `json:"pc"`
	Gas        uint64 `json:"gas"`
	ResultCode string `json:"resultCode"`
	Halted     bool   `json:"halted"`
}

// RegistersResponse is the full register file.
type RegistersResponse struct {
	Registers [13]uint64 `json:"registers"`
}

// PageMapEntryResponse is one page's address and access rights.
type PageMapEntryResponse struct {
	Address uint32 `json:"address"`
	Rights  byte   `json:"rights"`
}

// PageMapResponse is the full non-default page map.
type PageMapResponse struct {
	Pages []PageMapEntryResponse `json:"pages"`
}

// MemoryRequest requests a memory range.
type MemoryRequest struct {
	Address uint32 `json:"address"`
	Length  uint32 `json:"length"`
}

// MemoryResponse is the raw bytes read.
type MemoryResponse struct {
	Address uint32 `json:"address"`
	Data    []byte `json:"data"`
}

// ErrorResponse is a structured error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
