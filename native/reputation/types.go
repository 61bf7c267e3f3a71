package reputation

import "fmt"

// Metrics aggregates the reputation counters tracked per creator. Every field
// is monotonic except CollaboratorScore, which dispute penalties can lower
// (floored at zero).
type Metrics struct {
	Creator                  [20]byte `json:"creator"`
	CollaboratorScore        uint64   `json:"collaboratorScore"`
	TotalInspirations        uint64   `json:"totalInspirations"`
	TotalDerivatives         uint64   `json:"totalDerivatives"`
	FraudFlags               uint64   `json:"fraudFlags"`
	SuccessfulCollaborations uint64   `json:"successfulCollaborations"`
}

// Clone returns a copy of the metrics safe for caller mutation.
func (m *Metrics) Clone() *Metrics {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Event enumerates the closed set of reputation-affecting occurrences. Each
// event maps to a fixed effect; there are no free-form reason strings.
type Event uint8

const (
	EventDerivativeCreated Event = iota
	EventInspiredOthers
	EventProofVerified
	EventClaimDisputed
)

// Valid reports whether the event is within the supported range.
func (e Event) Valid() bool {
	switch e {
	case EventDerivativeCreated, EventInspiredOthers, EventProofVerified, EventClaimDisputed:
		return true
	default:
		return false
	}
}

func (e Event) String() string {
	switch e {
	case EventDerivativeCreated:
		return "derivativeCreated"
	case EventInspiredOthers:
		return "inspiredOthers"
	case EventProofVerified:
		return "proofVerified"
	case EventClaimDisputed:
		return "claimDisputed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

const disputePenalty uint64 = 50

// effects is the dispatch table applied by Store.Apply.
var effects = map[Event]func(*Metrics){
	EventDerivativeCreated: func(m *Metrics) {
		m.TotalDerivatives++
		m.CollaboratorScore += 10
	},
	EventInspiredOthers: func(m *Metrics) {
		m.TotalInspirations++
		m.CollaboratorScore += 15
	},
	EventProofVerified: func(m *Metrics) {
		m.SuccessfulCollaborations++
		m.CollaboratorScore += 25
	},
	EventClaimDisputed: func(m *Metrics) {
		m.FraudFlags++
		if m.CollaboratorScore > disputePenalty {
			m.CollaboratorScore -= disputePenalty
		} else {
			m.CollaboratorScore = 0
		}
	},
}
