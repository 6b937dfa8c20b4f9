package dsl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars map[string]any
		want string
	}{
		{"bound", "You bought {n}", map[string]any{"n": "3"}, "You bought 3"},
		{"unbound kept", "You bought {n}", nil, "You bought {n}"},
		{"int", "stock {s}", map[string]any{"s": int64(10)}, "stock 10"},
		{"float", "price {p}", map[string]any{"p": 2.50}, "price 2.5"},
		{"nil empty", "[{v}]", map[string]any{"v": nil}, "[]"},
		{"bytes", "{b}", map[string]any{"b": []byte("raw")}, "raw"},
		{"repeated", "{a}-{a}-{b}", map[string]any{"a": "x"}, "x-x-{b}"},
		{"sql", "UPDATE goods SET stock = stock - {q} WHERE name='phone'", map[string]any{"q": "2"}, "UPDATE goods SET stock = stock - 2 WHERE name='phone'"},
		{"not a placeholder", "{ spaced } {1abc}", map[string]any{"1abc": "no"}, "{ spaced } {1abc}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Interpolate(tt.text, tt.vars); got != tt.want {
				t.Errorf("Interpolate(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("Order {orderId} is {status}, {orderId}")
	want := []string{"orderId", "status", "orderId"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Placeholders mismatch (-want +got):\n%s", diff)
	}
}
