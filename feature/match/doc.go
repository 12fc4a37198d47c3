// Package match correlates tag readings against the inventory index
// and turns hits into dashboard notifications.
//
// Every reading passes a token-bucket rate gate, a key lookup and a
// per-pair cooldown before it becomes a match. Matches are coalesced
// by key in a dispatcher that flushes on a short timer, bounded per
// flush, with the timer cancelled whenever the queue drains.
package match
