package facts

import "testing"

func TestContradicts(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		a, b    string
		want    bool
	}{
		{"whereabouts", "kira", "was home all night", "was seen at the docks", true},
		{"antonym pair", "bram", "is innocent of the theft", "is guilty", true},
		{"did and didn't", "bram", "did take the ledger", "didn't take the ledger", true},
		{"never and always", "mara", "never visits the lighthouse", "always visits the lighthouse", true},
		{"didn't on both sides", "bram", "didn't take the ledger", "didn't take the money", false},
		{"unrelated", "kira", "owns a boat", "likes fish stew", false},
		{"bare not with shared topic", "kira", "does not own the boat", "owns the boat", true},
		{"bare not without shared topic", "kira", "does not like stew", "owns a boat", false},
		{"not on both sides", "kira", "does not own the boat", "does not sail the boat", false},
		{"case insensitive", "kira", "Was HOME all night", "was Seen At the docks", true},
		{"short subject whereabouts", "bo", "stayed at the inn", "left before dawn", true},
		{"was and wasn't on different topics", "kira", "was at the market", "wasn't hungry", false},
		{"is and isn't on different topics", "kira", "is a baker", "isn't married", false},
		{"did and didn't on different topics", "kira", "did the dishes", "didn't sleep", false},
		{"was and wasn't on the same topic", "kira", "was at the market", "wasn't at the market", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contradicts(tt.subject, tt.a, tt.b); got != tt.want {
				t.Errorf("Contradicts(%q, %q, %q) = %v, want %v", tt.subject, tt.a, tt.b, got, tt.want)
			}
			if got := Contradicts(tt.subject, tt.b, tt.a); got != tt.want {
				t.Errorf("Contradicts is not symmetric for %q / %q", tt.a, tt.b)
			}
		})
	}
}

func TestCorroborates(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same meaning", "was at the docks at midnight", "was at the docks around midnight", true},
		{"exactly half is not enough", "bought lamp oil", "bought bread flour", false},
		{"no content words", "was at it", "was at it", false},
		{"disjoint", "owns a boat", "likes fish stew", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Corroborates(tt.a, tt.b); got != tt.want {
				t.Errorf("Corroborates(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
