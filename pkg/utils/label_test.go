package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "both empty value",
			existing: Label{},
			incoming: Label{Value: "in_network", Source: "source"},
			want:     Label{Value: "in_network", Source: "source"},
		},
		{
			name:     "incoming empty keeps existing",
			existing: Label{Value: "trending", Source: "source"},
			incoming: Label{},
			want:     Label{Value: "trending", Source: "source"},
		},
		{
			name:     "accumulate",
			existing: Label{Value: "in_network", Source: "source"},
			incoming: Label{Value: "filter.seen", Source: "filter"},
			want:     Label{Value: "in_network|filter.seen", Source: "source,filter"},
		},
	}
	for _, tt := range tests {
		if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
			t.Errorf("%s: 期望 %+v，实际 %+v", tt.name, tt.want, got)
		}
	}
}
