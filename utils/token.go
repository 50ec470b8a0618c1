package utils

import (
	"sync"
	"time"
)

// In-memory blacklist for logged-out JWTs. Entries are kept for the maximum
// credential lifetime and swept periodically.

var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
	sweepOnce         sync.Once
)

func BlacklistToken(token string) {
	sweepOnce.Do(func() { go sweepBlacklist() })

	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[token] = time.Now().Add(time.Hour)
}

func IsTokenBlacklisted(token string) bool {
	blacklistMutex.RLock()
	defer blacklistMutex.RUnlock()

	expiry, exists := blacklistedTokens[token]
	return exists && time.Now().Before(expiry)
}

func sweepBlacklist() {
	for {
		time.Sleep(15 * time.Minute)
		blacklistMutex.Lock()
		now := time.Now()
		for token, expiry := range blacklistedTokens {
			if now.After(expiry) {
				delete(blacklistedTokens, token)
			}
		}
		blacklistMutex.Unlock()
	}
}
