package slots

import (
	"fmt"

	"reservd/pkg/model"
)

// Generate enumerates the bookable slots of one work day: starting at
// workStart, emit [cur, cur+block) windows in block-length steps for as long
// as the window still ends by workEnd. A trailing window that would overrun
// the day is dropped, never truncated.
//
// The function is pure; callers pass work-day bounds from configuration.
func Generate(block model.BlockLength, workStart, workEnd string) ([]model.TimeSlot, error) {
	if block <= 0 {
		return nil, fmt.Errorf("block length must be positive, got %s", block)
	}

	start, err := model.ParseClock(workStart)
	if err != nil {
		return nil, fmt.Errorf("invalid work-day start: %w", err)
	}
	end, err := model.ParseClock(workEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid work-day end: %w", err)
	}
	if start >= end {
		return nil, fmt.Errorf("work day must start before it ends, got %s-%s", workStart, workEnd)
	}

	var slots []model.TimeSlot
	for cur := start; cur+int(block) <= end; cur += int(block) {
		slots = append(slots, model.TimeSlot{
			Start: model.FormatClock(cur),
			End:   model.FormatClock(cur + int(block)),
		})
	}
	return slots, nil
}
