package domain

import (
	"errors"
	"math"
	"testing"
)

func TestDividerDivide(t *testing.T) {
	tests := []struct {
		name    string
		divider Divider
		value   any
		want    [2]any
		wantErr error
	}{
		{name: "Split Odd Remainder To First", divider: DividerSplit, value: int64(7), want: [2]any{int64(4), int64(3)}},
		{name: "Split Even", divider: DividerSplit, value: int64(10), want: [2]any{int64(5), int64(5)}},
		{name: "Split One", divider: DividerSplit, value: int64(1), want: [2]any{int64(1), int64(0)}},
		{name: "Split Zero", divider: DividerSplit, value: int64(0), want: [2]any{int64(0), int64(0)}},
		{name: "Split Float Halves", divider: DividerSplit, value: 3.0, want: [2]any{1.5, 1.5}},
		{name: "Split Infinity", divider: DividerSplit, value: math.Inf(1), want: [2]any{math.Inf(1), math.Inf(1)}},
		{name: "Split Non Numeric", divider: DividerSplit, value: "label", wantErr: ErrSchemaViolation},
		{name: "Set Copies To Both", divider: DividerSet, value: "label", want: [2]any{"label", "label"}},
		{name: "Zero Int", divider: DividerZero, value: int64(9), want: [2]any{int64(0), int64(0)}},
		{name: "Zero Float", divider: DividerZero, value: 2.5, want: [2]any{float64(0), float64(0)}},
		{name: "Assert No Divide", divider: DividerAssertNoDivide, value: int64(1), wantErr: ErrNoDivide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.divider.Divide(tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Divide: %v", err)
			}
			if got != tt.want {
				t.Errorf("Divide(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSplitConservesIntegerTotals(t *testing.T) {
	for v := int64(0); v < 100; v++ {
		pair, err := DividerSplit.Divide(v)
		if err != nil {
			t.Fatalf("Divide(%d): %v", v, err)
		}
		first, second := pair[0].(int64), pair[1].(int64)
		if first+second != v {
			t.Fatalf("split of %d lost mass: %d + %d", v, first, second)
		}
		if first < second {
			t.Fatalf("remainder must favor the first daughter: %d -> %d, %d", v, first, second)
		}
	}
}

func TestSetDividerDoesNotAliasDaughters(t *testing.T) {
	pair, err := DividerSet.Divide(map[string]any{"k": int64(1)})
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	pair[0].(map[string]any)["k"] = int64(99)
	if pair[1].(map[string]any)["k"] != int64(1) {
		t.Error("daughters share the same map")
	}
}

func TestParseDivider(t *testing.T) {
	for _, name := range []string{"set", "split", "zero", "assert_no_divide"} {
		d, err := ParseDivider(name)
		if err != nil {
			t.Fatalf("ParseDivider(%q): %v", name, err)
		}
		if d.String() != name {
			t.Errorf("round trip %q = %q", name, d.String())
		}
	}
	if _, err := ParseDivider("bogus"); !errors.Is(err, ErrUnknownDivider) {
		t.Errorf("err = %v, want ErrUnknownDivider", err)
	}
}
