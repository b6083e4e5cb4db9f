package slots

import (
	"testing"

	"reservd/pkg/model"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		block     model.BlockLength
		workStart string
		workEnd   string
		want      []model.TimeSlot
		wantErr   bool
	}{
		{
			name:      "hour blocks fill the work day exactly",
			block:     60,
			workStart: "09:00",
			workEnd:   "17:00",
			want: []model.TimeSlot{
				{Start: "09:00", End: "10:00"},
				{Start: "10:00", End: "11:00"},
				{Start: "11:00", End: "12:00"},
				{Start: "12:00", End: "13:00"},
				{Start: "13:00", End: "14:00"},
				{Start: "14:00", End: "15:00"},
				{Start: "15:00", End: "16:00"},
				{Start: "16:00", End: "17:00"},
			},
		},
		{
			name:      "trailing partial slot is dropped",
			block:     45,
			workStart: "09:00",
			workEnd:   "17:00",
			want: []model.TimeSlot{
				{Start: "09:00", End: "09:45"},
				{Start: "09:45", End: "10:30"},
				{Start: "10:30", End: "11:15"},
				{Start: "11:15", End: "12:00"},
				{Start: "12:00", End: "12:45"},
				{Start: "12:45", End: "13:30"},
				{Start: "13:30", End: "14:15"},
				{Start: "14:15", End: "15:00"},
				{Start: "15:00", End: "15:45"},
				{Start: "15:45", End: "16:30"},
			},
		},
		{
			name:      "block longer than the day yields no slots",
			block:     600,
			workStart: "09:00",
			workEnd:   "17:00",
			want:      nil,
		},
		{
			name:      "block equal to the day yields one slot",
			block:     480,
			workStart: "09:00",
			workEnd:   "17:00",
			want:      []model.TimeSlot{{Start: "09:00", End: "17:00"}},
		},
		{
			name:      "zero block length fails",
			block:     0,
			workStart: "09:00",
			workEnd:   "17:00",
			wantErr:   true,
		},
		{
			name:      "inverted work day fails",
			block:     30,
			workStart: "17:00",
			workEnd:   "09:00",
			wantErr:   true,
		},
		{
			name:      "unparseable bound fails",
			block:     30,
			workStart: "nine",
			workEnd:   "17:00",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.block, tt.workStart, tt.workEnd)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d slots, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("slot %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate(30, "09:00", "17:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Generate(30, "09:00", "17:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("generation is not deterministic: %d vs %d slots", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("generation is not deterministic at slot %d", i)
		}
	}
}
