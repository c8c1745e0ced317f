package emotion

import "testing"

func TestToMood(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Happy", "upbeat"},
		{"Sad", "melancholic"},
		{"Angry", "intense"},
		{"Neutral", "calm"},
		{"Surprised", "energetic"},
		{"", ""},
		{"happy", ""},
		{"Disgusted", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ToMood(tt.label); got != tt.want {
				t.Errorf("ToMood(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestToMood_TotalOverLabels(t *testing.T) {
	for _, l := range Labels {
		if ToMood(string(l)) == "" {
			t.Errorf("ToMood(%q) is empty", l)
		}
	}
}
