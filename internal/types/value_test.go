package types_test

import (
	"testing"
	"time"

	"github.com/chronodb/chronodb/internal/types"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		name    string
		want    types.DataType
		wantErr bool
	}{
		{"Int64", types.TypeInt64, false},
		{"int64", types.TypeInt64, false},
		{" Timestamp ", types.TypeTimestamp, false},
		{"UInt8", types.TypeUInt8, false},
		{"String", types.TypeString, false},
		{"Decimal", 0, true},
	}
	for _, tt := range tests {
		dt, err := types.ParseDataType(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDataType(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDataType(%q): %v", tt.name, err)
			continue
		}
		if dt != tt.want {
			t.Errorf("ParseDataType(%q) = %v, want %v", tt.name, dt, tt.want)
		}
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name string
		dt   types.DataType
		in   types.Value
		want types.Value
		ok   bool
	}{
		{"int literal to Int64", types.TypeInt64, int64(42), int64(42), true},
		{"int literal to Int32", types.TypeInt32, int64(42), int32(42), true},
		{"int literal to UInt8", types.TypeUInt8, int64(200), uint8(200), true},
		{"int out of range for UInt8", types.TypeUInt8, int64(300), nil, false},
		{"negative to UInt32", types.TypeUInt32, int64(-1), nil, false},
		{"int literal to Timestamp", types.TypeTimestamp, int64(1700000000000000), int64(1700000000000000), true},
		{"integral float to Int64", types.TypeInt64, float64(5), int64(5), true},
		{"fractional float to Int64", types.TypeInt64, float64(5.5), nil, false},
		{"float to Float64", types.TypeFloat64, float64(5.5), float64(5.5), true},
		{"string to String", types.TypeString, "abc", "abc", true},
		{"string to Int64", types.TypeInt64, "abc", nil, false},
		{"native passthrough", types.TypeUInt16, uint16(9), uint16(9), true},
		{"native mismatch", types.TypeUInt16, uint32(9), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := types.CoerceValue(tt.dt, tt.in)
			if ok != tt.ok {
				t.Fatalf("CoerceValue(%v, %v) ok = %v, want %v", tt.dt.Name(), tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("CoerceValue(%v, %v) = %v (%T), want %v (%T)",
					tt.dt.Name(), tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCoerceTimestampString(t *testing.T) {
	got, ok := types.CoerceValue(types.TypeTimestamp, "2024-01-02")
	if !ok {
		t.Fatal("expected date string to coerce to Timestamp")
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMicro()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-06-15T10:30:00Z", time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-06-15 10:30:00", time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-06-15", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		us, err := types.ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if us != tt.want.UnixMicro() {
			t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.in, us, tt.want.UnixMicro())
		}
	}

	if _, err := types.ParseTimestamp("not a time"); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}

func TestToInternal(t *testing.T) {
	got, err := types.ToInternal(types.TypeInt32, int32(-7))
	if err != nil {
		t.Fatal(err)
	}
	if got != -7 {
		t.Fatalf("got %d, want -7", got)
	}

	if _, err := types.ToInternal(types.TypeFloat64, float64(1.5)); err == nil {
		t.Fatal("Float64 must not be usable as a range coordinate")
	}
	if _, err := types.ToInternal(types.TypeString, "x"); err == nil {
		t.Fatal("String must not be usable as a range coordinate")
	}
}

func TestCompareValues(t *testing.T) {
	if got := types.CompareValues(types.TypeInt64, int64(1), int64(2)); got != -1 {
		t.Errorf("1 < 2: got %d", got)
	}
	if got := types.CompareValues(types.TypeString, "b", "a"); got != 1 {
		t.Errorf("b > a: got %d", got)
	}
	if got := types.CompareValues(types.TypeFloat64, 3.5, 3.5); got != 0 {
		t.Errorf("3.5 == 3.5: got %d", got)
	}
}

func TestValueToString(t *testing.T) {
	us := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC).UnixMicro()
	if got := types.ValueToString(types.TypeTimestamp, us); got != "2024-06-15T10:30:00Z" {
		t.Errorf("timestamp rendering: got %q", got)
	}
	if got := types.ValueToString(types.TypeInt64, int64(42)); got != "42" {
		t.Errorf("int rendering: got %q", got)
	}
	if got := types.ValueToString(types.TypeInt64, nil); got != "NULL" {
		t.Errorf("nil rendering: got %q", got)
	}
}
