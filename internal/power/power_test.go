package power

import "testing"

func TestScoreComponents(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int
	}{
		{
			name: "zero input scores stability only",
			in:   Input{},
			want: 15, // 0.15 * 100 stability
		},
		{
			name: "military capped at 200k soldiers",
			in:   Input{Soldiers: 500000, Unrest: 100},
			want: 50, // 0.25 * 200
		},
		{
			name: "player budget replaces economy index",
			in:   Input{Budget: 5_000_000, Unrest: 100},
			want: 13, // economy = 50, 0.25 * 50 = 12.5 → 13
		},
		{
			name: "diplomacy capped at 100",
			in:   Input{Allies: 20, Coalitions: 5, Agreements: 10, Unrest: 100},
			want: 20, // 0.20 * 100
		},
		{
			name: "technology research and buildings",
			in:   Input{ResearchLevel: 80, Buildings: 20, Unrest: 100},
			want: 15, // tech = min(100, 60+40) = 100, 0.15 * 100
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.in); got != tt.want {
				t.Errorf("Score(%+v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestScoreQualityModifier(t *testing.T) {
	base := Score(Input{Soldiers: 100000, Unrest: 100})
	elite := Score(Input{Soldiers: 100000, Unrest: 100, QualityModifier: 1.5})
	if elite <= base {
		t.Errorf("quality modifier should raise score: base=%d elite=%d", base, elite)
	}
	defaulted := Score(Input{Soldiers: 100000, Unrest: 100, QualityModifier: 1.0})
	if defaulted != base {
		t.Errorf("explicit 1.0 quality should match zero-value default: %d vs %d", defaulted, base)
	}
}

func TestScoreDeterministic(t *testing.T) {
	in := Input{Soldiers: 75000, Economy: 62, Allies: 2, Coalitions: 1, Agreements: 4, Unrest: 20, ResearchLevel: 35, Buildings: 3}
	first := Score(in)
	for i := 0; i < 100; i++ {
		if got := Score(in); got != first {
			t.Fatalf("Score is not deterministic: %d vs %d", got, first)
		}
	}
}
