package model

import "time"

// BlockPoint pairs a block height with its wall-clock timestamp. Heights are
// monotonic: a higher height never carries an earlier timestamp.
type BlockPoint struct {
	Height    uint64    `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}
