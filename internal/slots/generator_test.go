package slots

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		duration int
		expected []string
	}{
		{
			name:     "one hour of half hour slots",
			start:    "09:00",
			end:      "10:00",
			duration: 30,
			expected: []string{"09:00", "09:30"},
		},
		{
			name:     "full working day",
			start:    "09:00",
			end:      "17:00",
			duration: 60,
			expected: []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"},
		},
		{
			name:     "duration not dividing window evenly",
			start:    "09:00",
			end:      "10:00",
			duration: 45,
			// 09:45 starts before 10:00 even though it would end at 10:30.
			expected: []string{"09:00", "09:45"},
		},
		{
			name:     "slot starting exactly at end is excluded",
			start:    "09:00",
			end:      "09:30",
			duration: 30,
			expected: []string{"09:00"},
		},
		{
			name:     "window shorter than duration still yields first slot",
			start:    "09:00",
			end:      "09:10",
			duration: 30,
			expected: []string{"09:00"},
		},
		{
			name:     "zero duration",
			start:    "09:00",
			end:      "17:00",
			duration: 0,
			expected: nil,
		},
		{
			name:     "negative duration",
			start:    "09:00",
			end:      "17:00",
			duration: -30,
			expected: nil,
		},
		{
			name:     "start equals end",
			start:    "09:00",
			end:      "09:00",
			duration: 30,
			expected: nil,
		},
		{
			name:     "start after end",
			start:    "17:00",
			end:      "09:00",
			duration: 30,
			expected: nil,
		},
		{
			name:     "unparseable start",
			start:    "morning",
			end:      "17:00",
			duration: 30,
			expected: nil,
		},
		{
			name:     "unparseable end",
			start:    "09:00",
			end:      "late",
			duration: 30,
			expected: nil,
		},
		{
			name:     "minute precision",
			start:    "09:15",
			end:      "10:00",
			duration: 20,
			expected: []string{"09:15", "09:35", "09:55"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.start, tt.end, tt.duration)

			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d slots, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("slot %d: expected %s, got %s", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestGenerateSlotBounds(t *testing.T) {
	// Every generated slot must start inside [start, end) and be reachable
	// from start by whole duration steps.
	cases := []struct {
		start, end string
		duration   int
	}{
		{"08:00", "12:00", 15},
		{"09:10", "09:55", 7},
		{"00:00", "23:59", 90},
		{"13:30", "14:00", 30},
	}

	for _, c := range cases {
		slots := Generate(c.start, c.end, c.duration)
		startMin, _ := parseMinutes(c.start)
		endMin, _ := parseMinutes(c.end)

		for i, s := range slots {
			m, err := parseMinutes(s)
			if err != nil {
				t.Fatalf("generated unparseable slot %q", s)
			}
			if m < startMin || m >= endMin {
				t.Errorf("slot %s outside [%s, %s)", s, c.start, c.end)
			}
			if (m-startMin)%c.duration != 0 {
				t.Errorf("slot %s not aligned to %d-minute grid from %s", s, c.duration, c.start)
			}
			if i > 0 {
				prev, _ := parseMinutes(slots[i-1])
				if m <= prev {
					t.Errorf("slots out of order: %s after %s", s, slots[i-1])
				}
			}
		}
	}
}

func TestValidTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59", "9:05"}
	invalid := []string{"", "nine", "24:00", "12:60", "12", "-1:30"}

	for _, s := range valid {
		if !ValidTime(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if ValidTime(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
