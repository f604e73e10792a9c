package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{"empty string returns local", "", false},
		{"Local returns local", "Local", false},
		{"valid timezone UTC", "UTC", false},
		{"valid timezone America/New_York", "America/New_York", false},
		{"invalid timezone", "Invalid/Timezone", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	ts := time.Date(2025, 3, 10, 15, 4, 5, 0, loc)

	start := StartOfDay(ts)
	if !start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("StartOfDay() = %v", start)
	}
	end := EndOfDay(ts)
	if !end.Equal(time.Date(2025, 3, 10, 23, 59, 59, 999000000, loc)) {
		t.Errorf("EndOfDay() = %v", end)
	}
}

func TestSameDayAndDayAfter(t *testing.T) {
	a := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	c := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	if !SameDay(a, b) {
		t.Error("SameDay(a, b) = false, want true")
	}
	if SameDay(b, c) {
		t.Error("SameDay(b, c) = true, want false")
	}
	if !DayAfter(c, b) {
		t.Error("DayAfter(c, b) = false, want true")
	}
	if DayAfter(b, a) {
		t.Error("DayAfter(b, a) = true, want false")
	}
}

func TestWithTimeOfDay(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	clock := time.Date(2025, 3, 10, 7, 30, 15, 0, time.UTC)

	got := WithTimeOfDay(day, clock)
	want := time.Date(2025, 3, 12, 7, 30, 15, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("WithTimeOfDay() = %v, want %v", got, want)
	}
}

func TestCombineDateAndTime(t *testing.T) {
	got, err := CombineDateAndTime("2025-03-10", "14:30", time.UTC)
	if err != nil {
		t.Fatalf("CombineDateAndTime() error = %v", err)
	}
	if !got.Equal(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("CombineDateAndTime() = %v", got)
	}

	if _, err := CombineDateAndTime("2025-13-10", "14:30", time.UTC); err == nil {
		t.Error("CombineDateAndTime() accepted an invalid month")
	}
	if _, err := CombineDateAndTime("2025-03-10", "25:00", time.UTC); err == nil {
		t.Error("CombineDateAndTime() accepted an invalid hour")
	}
}

func TestParseDateOrToday(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"today", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"2025-04-01", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDateOrToday(tt.in, now, time.UTC)
		if err != nil {
			t.Fatalf("ParseDateOrToday(%q) error = %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDateOrToday(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDateOrToday("03/10/2025", now, time.UTC); err == nil {
		t.Error("ParseDateOrToday() accepted a non-ISO date")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "00:00"},
		{0, "00:00"},
		{25 * time.Minute, "25:00"},
		{90*time.Second + 400*time.Millisecond, "01:30"},
		{time.Hour + 5*time.Minute + 7*time.Second, "1:05:07"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseInstant(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-10T09:00:00Z", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
		{"2025-03-10 16:00", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
		{" 2025-03-10 16:00 ", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.in, loc)
		if err != nil {
			t.Fatalf("ParseInstant(%q) error = %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseInstant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseInstant("tomorrow 3pm", loc); err == nil {
		t.Error("ParseInstant() accepted free text")
	}
}
