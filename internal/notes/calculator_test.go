package notes

import (
	"testing"

	"github.com/shopspring/decimal"

	apperrors "github.com/hotshotfinger/geprekpos/backend/internal/errors"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"15000*3", "45000"},
		{"15000*3+2500/2", "46250"},
		{"(10000+5000)*2", "30000"},
		{"100-250", "-150"},
		{"-5*3", "-15"},
		{"2.5*4", "10"},
		{"10/4", "2.5"},
		{"((1+2)*(3+4))", "21"},
		{"2+3*4", "14"}, // precedence
	}

	for _, tc := range cases {
		got, err := Evaluate(tc.expr)
		if err != nil {
			t.Errorf("Evaluate(%q) failed: %v", tc.expr, err)
			continue
		}
		want, _ := decimal.NewFromString(tc.want)
		if !got.Equal(want) {
			t.Errorf("Evaluate(%q) = %s, want %s", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateStripsUnsafeCharacters(t *testing.T) {
	// The calculator UI pastes free text; everything but math is dropped.
	got, err := Evaluate("Rp 15000 * 3")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got.String() != "45000" {
		t.Errorf("expected 45000, got %s", got)
	}
}

func TestEvaluateErrors(t *testing.T) {
	cases := []string{
		"",
		"abc",     // nothing left after sanitizing
		"1+",      // dangling operator
		"(1+2",    // unclosed paren
		"1..2",    // double dot
		"5/0",     // division by zero
		"5/(3-3)", // division by zero via subexpression
		"1+2)",    // stray close paren
	}

	for _, expr := range cases {
		if _, err := Evaluate(expr); err == nil {
			t.Errorf("Evaluate(%q) succeeded, expected an error", expr)
		} else if !apperrors.Is(err, apperrors.ErrExpressionInvalid) {
			t.Errorf("Evaluate(%q) returned wrong code: %v", expr, err)
		}
	}
}

func TestCategoryRegistry(t *testing.T) {
	// Reset to a known state; the registry is package-global.
	ReplaceAll(nil)

	for _, name := range []string{"Penjualan", "Belanja", "Operasional", "Lainnya"} {
		if !ValidCategory(name) {
			t.Errorf("built-in category %s missing", name)
		}
	}
	if ValidCategory("Investasi") {
		t.Error("unknown category accepted")
	}

	Register(CategoryConfig{Name: "Investasi", Color: "blue", Variant: "default"})
	if !ValidCategory("Investasi") {
		t.Error("registered category not found")
	}

	if !Unregister("Investasi") {
		t.Error("custom category could not be removed")
	}
	if Unregister("Penjualan") {
		t.Error("built-in category removed")
	}
}

func TestReplaceAllKeepsBuiltins(t *testing.T) {
	ReplaceAll(map[string]CategoryConfig{
		"Modal": {Name: "Modal", Color: "purple", Variant: "default"},
	})
	defer ReplaceAll(nil)

	if !ValidCategory("Modal") {
		t.Error("imported category missing")
	}
	if !ValidCategory("Penjualan") {
		t.Error("built-in category dropped by import")
	}
}
