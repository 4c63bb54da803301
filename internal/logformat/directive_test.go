package logformat

import "testing"

func TestCompile_DirectiveDelimiterIsNotAlsoALiteral(t *testing.T) {
	// A directive consumes its own delimiter byte; the same byte must not
	// also appear as a separate KindLiteral step, or every token downstream
	// of it drifts by one byte.
	dirs, err := Compile(`%h %^ %^ [%d:%t %^] "%r" %s %b`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := []Kind{
		KindHost, KindDiscard, KindDiscard, KindLiteral,
		KindDate, KindTime, KindDiscard, KindLiteral, KindLiteral,
		KindRequestLine, KindLiteral, KindStatus, KindBytes,
	}
	if len(dirs) != len(want) {
		t.Fatalf("Compile produced %d directives, want %d: %+v", len(dirs), len(want), dirs)
	}
	for i, k := range want {
		if dirs[i].Kind != k {
			t.Errorf("dirs[%d].Kind = %v, want %v", i, dirs[i].Kind, k)
		}
	}
}

func TestCompile_UnknownDirectiveErrors(t *testing.T) {
	if _, err := Compile(`%Z`); err == nil {
		t.Error("Compile with unknown directive: expected error, got nil")
	}
}

func TestCompile_TrailingPercentErrors(t *testing.T) {
	if _, err := Compile(`%h%`); err == nil {
		t.Error("Compile with trailing %%: expected error, got nil")
	}
}

func TestRequiredDirectives(t *testing.T) {
	dirs, err := Compile(`%h [%d] "%r" %s %b`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	hasHost, hasReq, hasDate := RequiredDirectives(dirs)
	if !hasHost || !hasReq || !hasDate {
		t.Errorf("RequiredDirectives = (%v,%v,%v), want all true", hasHost, hasReq, hasDate)
	}
}
