package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PlayerGameStateKey returns the cache key for a player's individual-mode
// run snapshot. One active run per player.
func (r *CacheKeyStruct) PlayerGameStateKey(playerID string) string {
	return fmt.Sprintf("player:%s:game_state", playerID)
}

// SessionJoinCodeKey returns the cache key mapping a join code to a live
// session id.
func (r *CacheKeyStruct) SessionJoinCodeKey(joinCode string) string {
	return fmt.Sprintf("session:code:%s", joinCode)
}

// SessionEventsChannel returns the Redis Pub/Sub channel carrying change
// notifications for one classroom session.
func (r *CacheKeyStruct) SessionEventsChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:events", sessionID)
}

var CacheKey = NewCacheKeyStruct()
