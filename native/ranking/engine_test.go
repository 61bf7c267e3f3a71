package ranking

import "testing"

func TestFreshContentScoresBase(t *testing.T) {
	if got := Score(Inputs{}); got != 1000 {
		t.Fatalf("fresh content score = %d, want 1000", got)
	}
}

func TestClaimsRaiseTheScore(t *testing.T) {
	one := Score(Inputs{ClaimCount: 1})
	if one != 1200 {
		t.Fatalf("one claim = %d, want 1200", one)
	}
	two := Score(Inputs{ClaimCount: 2})
	if two <= one {
		t.Fatalf("second claim did not raise the score: %d vs %d", two, one)
	}
}

func TestVerifiedClaimMultiplies(t *testing.T) {
	unverified := Score(Inputs{ClaimCount: 1})
	verified := Score(Inputs{ClaimCount: 1, VerifiedClaimCount: 1})
	if verified <= unverified {
		t.Fatalf("verified claim did not raise the score: %d vs %d", verified, unverified)
	}
	// (1000 + 200) * 1300 / 1000
	if verified != 1560 {
		t.Fatalf("verified score = %d, want 1560", verified)
	}
}

func TestReputationMultiplierIsClamped(t *testing.T) {
	modest := Score(Inputs{CollaboratorScore: 500})
	if modest != 1500 {
		t.Fatalf("reputation 500 score = %d, want 1500", modest)
	}
	// Reputation beyond the ceiling doubles the base and no more.
	capped := Score(Inputs{CollaboratorScore: 50_000})
	if capped != 2000 {
		t.Fatalf("capped reputation score = %d, want 2000", capped)
	}
}

func TestGraphBonusIsCapped(t *testing.T) {
	three := Score(Inputs{DerivativeCount: 3})
	if three != 1300 {
		t.Fatalf("three derivatives = %d, want 1300", three)
	}
	many := Score(Inputs{DerivativeCount: 50})
	if many != 1500 {
		t.Fatalf("graph bonus not capped: %d, want 1500", many)
	}
}

func TestFraudPenaltyFloorsAtZero(t *testing.T) {
	one := Score(Inputs{FraudFlags: 1})
	if one != 300 {
		t.Fatalf("one fraud flag = %d, want 300", one)
	}
	if got := Score(Inputs{FraudFlags: 5}); got != 0 {
		t.Fatalf("heavy fraud score = %d, want 0", got)
	}
}

func TestMultipliersCompose(t *testing.T) {
	got := Score(Inputs{
		ClaimCount:         2,
		VerifiedClaimCount: 1,
		CollaboratorScore:  200,
		DerivativeCount:    2,
		FraudFlags:         1,
	})
	// (1000 + 400) * 1300 / 1000 = 1820; * 1200 / 1000 = 2184; + 200 - 700.
	if got != 1684 {
		t.Fatalf("composed score = %d, want 1684", got)
	}
}
