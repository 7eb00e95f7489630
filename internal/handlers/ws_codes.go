// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes. These give clients a more specific reason for
// closure than the standard status codes.
const (
	BadSubprotocolError   = 3000 // client connected with an unsupported subprotocol
	InvalidAuthTokenError = 3001 // auth token was missing, invalid, or expired
	InvalidRoomIDError    = 3002 // target room does not exist
)
