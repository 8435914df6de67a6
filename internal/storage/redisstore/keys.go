// Package redisstore keeps per-session shopping state (cart, checkout flow,
// app state, wishlist) in Redis so any API instance can serve any session.
package redisstore

import (
	"fmt"
	"time"
)

// Key layout. Everything is scoped by session ID so a session can be dropped
// by deleting its keys.
const (
	cartKeyFmt     = "cart:%s"
	checkoutKeyFmt = "checkout:%s"
	stateKeyFmt    = "state:%s"
	wishlistKeyFmt = "wishlist:%s"
)

// DefaultTTL is how long idle session state survives. Every write refreshes
// the clock.
var DefaultTTL = 24 * time.Hour

func cartKey(sessionID string) string     { return fmt.Sprintf(cartKeyFmt, sessionID) }
func checkoutKey(sessionID string) string { return fmt.Sprintf(checkoutKeyFmt, sessionID) }
func stateKey(sessionID string) string    { return fmt.Sprintf(stateKeyFmt, sessionID) }
func wishlistKey(sessionID string) string { return fmt.Sprintf(wishlistKeyFmt, sessionID) }
