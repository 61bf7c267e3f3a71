package content

// PoolReference is the opaque handle to the external liquidity pool and
// position that back a piece of content. The registry never interprets it
// beyond equality.
type PoolReference struct {
	PoolKey    string `json:"poolKey"`
	PositionID uint64 `json:"positionId"`
}

// Record captures a registered piece of content. Records are never deleted;
// the only mutations after creation are creator reassignment (position
// transfers) and derivative counting.
type Record struct {
	ID              [32]byte      `json:"id"`
	Creator         [20]byte      `json:"creator"`
	Asset           [20]byte      `json:"asset"`
	Fingerprint     string        `json:"fingerprint"`
	FingerprintHash [32]byte      `json:"fingerprintHash"`
	CreatedAt       int64         `json:"createdAt"`
	DerivativeCount uint64        `json:"derivativeCount"`
	Pool            PoolReference `json:"pool"`
}

// Clone returns a copy of the record so callers can safely mutate it without
// affecting the stored instance.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
