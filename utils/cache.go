package utils

import (
	"context"
	"log"
	"sync"
	"time"
)

// CacheEntry represents a cached user data entry
type CacheEntry struct {
	User      *User
	ExpiresAt time.Time
	Mutex     sync.RWMutex
}

// UserCache caches user rows for read paths (/balance, /profile). Every
// ledger mutation invalidates the entry, so cached balances are only
// ever stale across pure reads.
type UserCache struct {
	data          map[int64]*CacheEntry
	mutex         sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	done          chan bool
}

// Global cache instance
var Cache *UserCache

// InitializeCache sets up the user cache system
func InitializeCache(ttl time.Duration) {
	Cache = &UserCache{
		data: make(map[int64]*CacheEntry),
		ttl:  ttl,
		done: make(chan bool),
	}

	Cache.cleanupTicker = time.NewTicker(UserCacheSweep)
	go Cache.cleanupRoutine()
}

// CloseCache stops the cache cleanup routine
func CloseCache() {
	if Cache != nil && Cache.cleanupTicker != nil {
		Cache.cleanupTicker.Stop()
		Cache.done <- true
	}
}

// Get retrieves a user from cache
func (uc *UserCache) Get(userID int64) (*User, bool) {
	uc.mutex.RLock()
	entry, exists := uc.data[userID]
	uc.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	entry.Mutex.RLock()
	defer entry.Mutex.RUnlock()

	if time.Now().After(entry.ExpiresAt) {
		uc.mutex.Lock()
		delete(uc.data, userID)
		uc.mutex.Unlock()
		return nil, false
	}

	// Return a copy to prevent external modifications
	userCopy := *entry.User
	return &userCopy, true
}

// Set stores a user in cache
func (uc *UserCache) Set(userID int64, user *User) {
	userCopy := *user

	entry := &CacheEntry{
		User:      &userCopy,
		ExpiresAt: time.Now().Add(uc.ttl),
	}

	uc.mutex.Lock()
	uc.data[userID] = entry
	uc.mutex.Unlock()
}

// Delete removes a user from cache
func (uc *UserCache) Delete(userID int64) {
	uc.mutex.Lock()
	delete(uc.data, userID)
	uc.mutex.Unlock()
}

// Size returns the number of entries in cache
func (uc *UserCache) Size() int {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return len(uc.data)
}

// Clear removes all entries from cache
func (uc *UserCache) Clear() {
	uc.mutex.Lock()
	uc.data = make(map[int64]*CacheEntry)
	uc.mutex.Unlock()
}

// cleanupRoutine removes expired entries periodically
func (uc *UserCache) cleanupRoutine() {
	for {
		select {
		case <-uc.cleanupTicker.C:
			uc.cleanup()
		case <-uc.done:
			return
		}
	}
}

// cleanup removes expired entries
func (uc *UserCache) cleanup() {
	now := time.Now()
	expiredKeys := make([]int64, 0)

	uc.mutex.RLock()
	for userID, entry := range uc.data {
		entry.Mutex.RLock()
		if now.After(entry.ExpiresAt) {
			expiredKeys = append(expiredKeys, userID)
		}
		entry.Mutex.RUnlock()
	}
	uc.mutex.RUnlock()

	if len(expiredKeys) > 0 {
		uc.mutex.Lock()
		for _, userID := range expiredKeys {
			delete(uc.data, userID)
		}
		uc.mutex.Unlock()

		log.Printf("Cleaned up %d expired cache entries. Cache size: %d", len(expiredKeys), uc.Size())
	}
}

// GetCachedUser retrieves user data from cache or database
func GetCachedUser(ctx context.Context, userID int64) (*User, error) {
	if Cache != nil {
		if user, found := Cache.Get(userID); found {
			return user, nil
		}
	}

	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if Cache != nil {
		Cache.Set(userID, user)
	}

	return user, nil
}

// InvalidateUserCache removes a user from cache
func InvalidateUserCache(userID int64) {
	if Cache != nil {
		Cache.Delete(userID)
	}
}
