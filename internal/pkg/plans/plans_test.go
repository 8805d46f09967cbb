package plans

import "testing"

func TestGetPlanFallsBackToFree(t *testing.T) {
	tests := []struct {
		in   string
		want PlanID
	}{
		{in: "free", want: PlanFree},
		{in: "standard", want: PlanStandard},
		{in: "premium", want: PlanPremium},
		{in: "PREMIUM", want: PlanPremium},
		{in: "enterprise", want: PlanFree},
		{in: "", want: PlanFree},
	}

	for _, tt := range tests {
		if got := GetPlan(tt.in); got.ID != tt.want {
			t.Fatalf("GetPlan(%q).ID = %q, want %q", tt.in, got.ID, tt.want)
		}
	}
}

func TestPlanLimits(t *testing.T) {
	free := GetPlan("free")
	if free.ApplicationsLimit != 5 || free.AIGenerationsLimit != 10 {
		t.Fatalf("unexpected free limits: %d/%d", free.ApplicationsLimit, free.AIGenerationsLimit)
	}

	standard := GetPlan("standard")
	if standard.ApplicationsLimit != 50 || standard.AIGenerationsLimit != 100 {
		t.Fatalf("unexpected standard limits: %d/%d", standard.ApplicationsLimit, standard.AIGenerationsLimit)
	}

	premium := GetPlan("premium")
	if premium.ApplicationsLimit != Unlimited || premium.AIGenerationsLimit != Unlimited {
		t.Fatalf("expected premium to be unlimited")
	}
}

func TestOutranks(t *testing.T) {
	if !Outranks("standard", "free") {
		t.Fatalf("expected standard to outrank free")
	}
	if !Outranks("premium", "standard") {
		t.Fatalf("expected premium to outrank standard")
	}
	if Outranks("free", "free") {
		t.Fatalf("free must not outrank itself")
	}
	if Outranks("bogus", "standard") {
		t.Fatalf("unknown plan must normalize to free")
	}
}
