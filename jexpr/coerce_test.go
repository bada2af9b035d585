package jexpr

import (
	"errors"
	"math"
	"testing"
)

func TestToNumber(t *testing.T) {
	cases := []struct {
		in   Value
		want float64
		ok   bool
	}{
		{NewNumber(3), 3, true},
		{NewText("2.5"), 2.5, true},
		{NewText("  -4e2 "), -400, true},
		{NewText("Infinity"), math.Inf(1), true},
		{NewText("0x10"), 0, false},
		{NewText("1_000"), 0, false},
		{NewText("inf"), 0, false},
		{NewText("abc"), 0, false},
		{NewText(""), 0, false},
		{NewBool(true), 0, false},
		{NewNull(), 0, false},
		{NewList(NewNumber(1)), 0, false},
	}
	for _, tc := range cases {
		got, err := ToNumber(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("ToNumber(%s): expected %v, got %v (%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		var coercionErr *CoercionError
		if !errors.As(err, &coercionErr) {
			t.Fatalf("ToNumber(%s): expected coercion error, got %v", tc.in, err)
		}
		if coercionErr.From != tc.in.Kind() || coercionErr.To != "number" {
			t.Fatalf("unexpected coercion error fields %+v", coercionErr)
		}
	}

	nan, err := ToNumber(NewText("NaN"))
	if err != nil || !math.IsNaN(nan) {
		t.Fatalf("expected NaN, got %v (%v)", nan, err)
	}
}

func TestToInteger(t *testing.T) {
	cases := map[float64]int{2.9: 2, -2.9: -2, 0: 0, 1e6: 1000000}
	for in, want := range cases {
		got, err := ToInteger(NewNumber(in))
		if err != nil || got != want {
			t.Fatalf("ToInteger(%v): expected %d, got %d (%v)", in, want, got, err)
		}
	}
	for _, bad := range []Value{NewNumber(math.NaN()), NewNumber(math.Inf(1)), NewText("x")} {
		if _, err := ToInteger(bad); err == nil {
			t.Fatalf("ToInteger(%s): expected error", bad)
		}
	}
}

func TestToBooleanIsStrict(t *testing.T) {
	if b, err := ToBoolean(NewBool(true)); err != nil || !b {
		t.Fatalf("expected true, got %v (%v)", b, err)
	}
	for _, v := range []Value{NewNumber(1), NewText("true"), NewNull(), NewList()} {
		var coercionErr *CoercionError
		if _, err := ToBoolean(v); !errors.As(err, &coercionErr) {
			t.Fatalf("ToBoolean(%s): expected coercion error, got %v", v, err)
		}
	}
}

func TestToColor(t *testing.T) {
	cases := []struct {
		in   Value
		want Color
	}{
		{NewList(NewNumber(255), NewNumber(0), NewNumber(0)), Color{255, 0, 0, 255}},
		{NewText("#00FF00"), Color{0, 255, 0, 255}},
		{NewNumber(128), Color{128, 128, 128, 255}},
		{NewNumber(300), Color{255, 255, 255, 255}},
		{NewNumber(-4), Color{0, 0, 0, 255}},
		{NewText("#0f0"), Color{0, 255, 0, 255}},
		{NewText("#11223344"), Color{0x11, 0x22, 0x33, 0x44}},
		{NewText("Red"), Color{255, 0, 0, 255}},
		{NewText("cornflowerblue"), Color{100, 149, 237, 255}},
		{NewList(NewNumber(1), NewNumber(2), NewNumber(3), NewNumber(4)), Color{1, 2, 3, 4}},
		{NewRGBA(9, 8, 7, 6), Color{9, 8, 7, 6}},
	}
	for _, tc := range cases {
		got, err := ToColor(tc.in)
		if err != nil {
			t.Fatalf("ToColor(%s) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ToColor(%s): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}

	bad := []Value{
		NewText("#12345"),
		NewText("not-a-color"),
		NewList(NewNumber(1), NewNumber(2)),
		NewList(NewNumber(1), NewNumber(2), NewText("x")),
		NewNumber(math.NaN()),
		NewBool(true),
		NewNull(),
	}
	for _, v := range bad {
		var coercionErr *CoercionError
		if _, err := ToColor(v); !errors.As(err, &coercionErr) {
			t.Fatalf("ToColor(%s): expected coercion error, got %v", v, err)
		}
	}
}

func TestToDoubleList(t *testing.T) {
	got, err := ToDoubleList(NewList(NewNumber(1), NewText("2")))
	if err != nil || len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected list %v (%v)", got, err)
	}

	got, err = ToDoubleList(NewNumber(7))
	if err != nil || len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected singleton, got %v (%v)", got, err)
	}

	got, err = ToDoubleList(NewText("3"))
	if err != nil || len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected scalar path for text, got %v (%v)", got, err)
	}

	if _, err := ToDoubleList(NewText("x")); err == nil {
		t.Fatalf("expected non-numeric scalar to fail")
	}
	if _, err := ToDoubleList(NewList(NewBool(true))); err == nil {
		t.Fatalf("expected non-numeric element to fail")
	}
}

func TestToStringValueIsTotal(t *testing.T) {
	values := []Value{
		NewNull(), NewNumber(1.5), NewText("x"), NewBool(false), NewRGBA(0, 0, 0, 255),
		NewList(NewNull()), NewMap(MapEntry{"k", NewBool(true)}), NewPath("p"),
	}
	want := []string{"null", "1.5", "x", "false", "#000000", "[null]", `{"k": true}`, "p"}
	for i, v := range values {
		if got := ToStringValue(v); got != want[i] {
			t.Fatalf("ToStringValue(%v): expected %q, got %q", v.Kind(), want[i], got)
		}
	}
}
