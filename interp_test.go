package pdf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_Stack_PushPop(t *testing.T) {
	var s Stack
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}

	s.Push(Value{data: int64(1)})
	s.Push(Value{data: int64(2)})
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	if got := s.Pop().Int64(); got != 2 {
		t.Errorf("Pop() = %d, want 2", got)
	}
	if got := s.Pop().Int64(); got != 1 {
		t.Errorf("Pop() = %d, want 1", got)
	}

	// Popping an empty stack yields a null Value rather than panicking.
	if got := s.Pop(); !got.IsNull() {
		t.Errorf("Pop() on empty stack = %v, want null", got)
	}
}

func Test_Interpret_operatorDispatch(t *testing.T) {
	type call struct {
		op   string
		args []float64
	}

	testCases := map[string]struct {
		input string
		want  []call
	}{
		"single operator no operands": {
			input: "q Q",
			want:  []call{{op: "q"}, {op: "Q"}},
		},
		"operands before operator": {
			input: "1 0 0 1 10 20 cm",
			want:  []call{{op: "cm", args: []float64{1, 0, 0, 1, 10, 20}}},
		},
		"multiple operators share nothing across calls": {
			input: "1 Tc 2 Tw",
			want: []call{
				{op: "Tc", args: []float64{1}},
				{op: "Tw", args: []float64{2}},
			},
		},
		"string operand": {
			input: "(hi) Tj",
			want:  []call{{op: "Tj"}},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var got []call
			Interpret(strings.NewReader(tc.input), func(stk *Stack, op string) {
				n := stk.Len()
				var args []float64
				for i := 0; i < n; i++ {
					v := stk.Pop()
					if v.Kind() == IntegerKind || v.Kind() == RealKind {
						args = append([]float64{v.Float64()}, args...)
					}
				}
				got = append(got, call{op: op, args: args})
			})

			if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(call{})); diff != "" {
				t.Errorf("operators mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Interpret_stackClearsBetweenOperators(t *testing.T) {
	var maxLen int
	Interpret(strings.NewReader("1 2 3 Tc 4 Tw"), func(stk *Stack, op string) {
		if stk.Len() > maxLen {
			maxLen = stk.Len()
		}
	})
	// The callback pops nothing; if the stack weren't cleared after each
	// operator, Tw would see 4 items instead of 1.
	if maxLen > 3 {
		t.Errorf("max stack depth seen = %d, want <= 3", maxLen)
	}
}

func Test_Interpret_arrayAndDictOperands(t *testing.T) {
	var gotKind ValueKind
	Interpret(strings.NewReader("[(a) -120 (b)] TJ"), func(stk *Stack, op string) {
		if op == "TJ" {
			gotKind = stk.Pop().Kind()
		}
	})
	if gotKind != ArrayKind {
		t.Errorf("TJ operand kind = %v, want ArrayKind", gotKind)
	}
}

func Test_Interpret_inlineImageSkipped(t *testing.T) {
	var ops []string
	// The raw image payload between ID and EI must never be tokenized
	// as operators; Interpret must skip straight past it to "Q".
	Interpret(strings.NewReader("q BI /W 1 /H 1 ID \x01\x02\x03 EI Q"), func(stk *Stack, op string) {
		ops = append(ops, op)
	})
	if diff := cmp.Diff([]string{"q", "Q"}, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func Test_Interpret_malformedOperatorRecovers(t *testing.T) {
	// A stray closing delimiter with no matching opener must not panic
	// the whole interpretation; it's simply ignored.
	var ops []string
	Interpret(strings.NewReader("q ] Q"), func(stk *Stack, op string) {
		ops = append(ops, op)
	})
	if diff := cmp.Diff([]string{"q", "Q"}, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func Test_Interpret_emptyStream(t *testing.T) {
	var called bool
	Interpret(strings.NewReader(""), func(stk *Stack, op string) {
		called = true
	})
	if called {
		t.Error("do callback invoked on empty content stream")
	}
}
