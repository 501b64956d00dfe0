package types

import "testing"

func TestFromStr(t *testing.T) {
	tests := []struct {
		name    string
		want    *TypeDesc
		wantErr bool
	}{
		{"int", Int, false},
		{"float", Float, false},
		{"string", Str, false},
		{"char", Char, false},
		{"void", Void, false},
		{"bogus", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromStr(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("FromStr(%q) = %p, want singleton %p", tt.name, got, tt.want)
			}
		})
	}
}

func TestTypeDescEquality(t *testing.T) {
	if !Int.Equals(Int) {
		t.Error("Int should equal Int")
	}
	if Int.Equals(Float) {
		t.Error("Int should not equal Float")
	}

	f1 := NewFunc(Int, Int, Float)
	f2 := NewFunc(Int, Int, Float)
	f3 := NewFunc(Int, Float, Int)

	if !f1.Equals(f2) {
		t.Error("structurally identical function types should be equal")
	}
	if f1.Equals(f3) {
		t.Error("function types with different param order should not be equal")
	}
	if f1.Equals(Int) {
		t.Error("a function type should never equal a simple type")
	}
}

func TestTypeDescString(t *testing.T) {
	if Int.String() != "int" {
		t.Errorf("Int.String() = %q, want %q", Int.String(), "int")
	}
	ft := NewFunc(Void, Int, Str)
	if got, want := ft.String(), "void (int, string)"; got != want {
		t.Errorf("func String() = %q, want %q", got, want)
	}
	ft0 := NewFunc(Int)
	if got, want := ft0.String(), "int ()"; got != want {
		t.Errorf("nullary func String() = %q, want %q", got, want)
	}
}

func TestCanConvert(t *testing.T) {
	tests := []struct {
		from, to *TypeDesc
		want     bool
	}{
		{Int, Float, true},
		{Int, Str, true},
		{Int, Char, true},
		{Float, Str, true},
		{Float, Int, false},
		{Str, Char, true},
		{Char, Str, true},
		{Char, Float, false},
		{Int, Int, false}, // not a listed conversion edge; equal types never need one
	}

	for _, tt := range tests {
		if got := CanConvert(tt.from, tt.to); got != tt.want {
			t.Errorf("CanConvert(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	funcT := NewFunc(Int)
	if CanConvert(funcT, Int) || CanConvert(Int, funcT) {
		t.Error("function types should never be convertible")
	}
}

func TestLookupBinOp(t *testing.T) {
	if result, ok := LookupBinOp(Add, INT, INT); !ok || result != INT {
		t.Errorf("Add(INT,INT) = (%v, %v), want (INT, true)", result, ok)
	}
	if result, ok := LookupBinOp(Add, CHAR, CHAR); !ok || result != STR {
		t.Errorf("Add(CHAR,CHAR) = (%v, %v), want (STR, true)", result, ok)
	}
	if _, ok := LookupBinOp(Sub, STR, STR); ok {
		t.Error("Sub(STR,STR) should not be defined")
	}
	if _, ok := LookupBinOp(And, FLOAT, FLOAT); ok {
		t.Error("And(FLOAT,FLOAT) should not be defined")
	}
	if _, ok := LookupBinOp(Gt, CHAR, CHAR); !ok {
		t.Error("Gt(CHAR,CHAR) should be defined")
	}
}
