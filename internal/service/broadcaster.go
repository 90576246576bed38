package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastLeaderboard(payload interface{})
	BroadcastToUser(userID string, msgType string, payload interface{})
}
