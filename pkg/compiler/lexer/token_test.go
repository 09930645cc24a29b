package lexer

import "testing"

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident    string
		expected TokenType
	}{
		{"global", TOKEN_GLOBAL},
		{"foreach", TOKEN_FOREACH},
		{"float", TOKEN_FLOAT_TYPE},
		{"string", TOKEN_STRING_TYPE},
		{"Global", TOKEN_IDENT},
		{"String", TOKEN_IDENT},
		{"score", TOKEN_IDENT},
	}

	for i, tt := range tests {
		if got := LookupIdent(tt.ident); got != tt.expected {
			t.Fatalf("tests[%d] - LookupIdent(%q) wrong. expected=%s, got=%s", i, tt.ident, tt.expected, got)
		}
	}
}

func TestTokenTypeClassification(t *testing.T) {
	tests := []struct {
		typ      TokenType
		keyword  bool
		typeName bool
		mode     bool
		operator bool
	}{
		{TOKEN_INT_TYPE, true, true, false, false},
		{TOKEN_VOID, true, true, false, false},
		{TOKEN_REF, true, false, true, false},
		{TOKEN_PARAMS, true, false, true, false},
		{TOKEN_IN, true, false, true, false},
		{TOKEN_RETURN, true, false, false, false},
		{TOKEN_ARROW, false, false, false, true},
		{TOKEN_PLUS_ASSIGN, false, false, false, true},
		{TOKEN_IDENT, false, false, false, false},
		{TOKEN_SEMICOLON, false, false, false, false},
	}

	for i, tt := range tests {
		if got := tt.typ.IsKeyword(); got != tt.keyword {
			t.Fatalf("tests[%d] - %s.IsKeyword() = %v", i, tt.typ, got)
		}
		if got := tt.typ.IsTypeKeyword(); got != tt.typeName {
			t.Fatalf("tests[%d] - %s.IsTypeKeyword() = %v", i, tt.typ, got)
		}
		if got := tt.typ.IsArgumentMode(); got != tt.mode {
			t.Fatalf("tests[%d] - %s.IsArgumentMode() = %v", i, tt.typ, got)
		}
		if got := tt.typ.IsOperator(); got != tt.operator {
			t.Fatalf("tests[%d] - %s.IsOperator() = %v", i, tt.typ, got)
		}
	}
}

func TestTokenTypeString(t *testing.T) {
	if got := TOKEN_MOD_ASSIGN.String(); got != "%=" {
		t.Errorf("expected %%=, got %s", got)
	}
	if got := TokenType(9999).String(); got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", got)
	}
	if got := (Token{Line: 3, Column: 7}).Pos().String(); got != "3:7" {
		t.Errorf("expected 3:7, got %s", got)
	}
}
