package ranking

const (
	baseScore           uint64 = 1000
	inspirationBonusPer uint64 = 200
	zkBonusPerMille     uint64 = 300
	reputationFloor     uint64 = 1000
	reputationCeiling   uint64 = 2000
	graphBonusPer       uint64 = 100
	graphBonusCap       uint64 = 500
	fraudPenaltyPer     uint64 = 700
)

// Inputs carries the read-only facts a score is computed from. Callers
// assemble it from the content registry, the claim ledger and the reputation
// store; the engine itself mutates nothing.
type Inputs struct {
	DerivativeCount    uint64
	ClaimCount         uint64
	VerifiedClaimCount uint64
	CollaboratorScore  uint64
	FraudFlags         uint64
}

func clamp(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Score computes the ranking score for a piece of content. Fresh content with
// no claims and a zero reputation scores exactly baseScore; verified claims
// and reputation scale the base multiplicatively (per-mille multipliers,
// truncating division), the graph bonus is additive and capped, and fraud
// flags subtract with a floor at zero.
func Score(in Inputs) uint64 {
	zkMultiplier := 1000 + zkBonusPerMille*in.VerifiedClaimCount
	reputationMultiplier := clamp(1000+in.CollaboratorScore, reputationFloor, reputationCeiling)
	graphBonus := in.DerivativeCount * graphBonusPer
	if graphBonus > graphBonusCap {
		graphBonus = graphBonusCap
	}
	score := baseScore + inspirationBonusPer*in.ClaimCount
	score = score * zkMultiplier / 1000
	score = score * reputationMultiplier / 1000
	score += graphBonus
	penalty := fraudPenaltyPer * in.FraudFlags
	if score > penalty {
		return score - penalty
	}
	return 0
}
