package logformat

import (
	"errors"
	"testing"
)

func TestNextToken_LineAlreadyExhausted(t *testing.T) {
	_, _, err := nextToken("abc", 3, ' ', false, 1)
	if !errors.Is(err, ErrLineExhausted) {
		t.Errorf("err = %v, want ErrLineExhausted", err)
	}
}

func TestNextToken_DelimiterAbsentEntirely(t *testing.T) {
	_, _, err := nextToken("abcdef", 0, ' ', false, 1)
	if !errors.Is(err, ErrTokenMissing) {
		t.Errorf("err = %v, want ErrTokenMissing", err)
	}
}

func TestNextToken_DelimiterUnderCountSucceedsAtEOL(t *testing.T) {
	// Only one space present, but count asks for the 2nd occurrence: the
	// original C parser's *pch == '\0' branch succeeds with the
	// remainder of the line as the token, rather than rejecting the line.
	token, newPos, err := nextToken("foo bar", 0, ' ', false, 2)
	if err != nil {
		t.Fatalf("nextToken: unexpected error %v", err)
	}
	if token != "foo bar" {
		t.Errorf("token = %q, want %q", token, "foo bar")
	}
	if newPos != len("foo bar") {
		t.Errorf("newPos = %d, want %d", newPos, len("foo bar"))
	}
}

func TestNextToken_DelimiterMetExactlyAtCount(t *testing.T) {
	token, newPos, err := nextToken("foo bar baz", 0, ' ', false, 2)
	if err != nil {
		t.Fatalf("nextToken: unexpected error %v", err)
	}
	if token != "foo bar" {
		t.Errorf("token = %q, want %q", token, "foo bar")
	}
	if newPos != len("foo bar ") {
		t.Errorf("newPos = %d, want %d", newPos, len("foo bar "))
	}
}

func TestNextToken_DelimEOLIgnoresCount(t *testing.T) {
	token, newPos, err := nextToken("foo bar", 0, 0, true, 1)
	if err != nil {
		t.Fatalf("nextToken: unexpected error %v", err)
	}
	if token != "foo bar" || newPos != len("foo bar") {
		t.Errorf("token, newPos = %q, %d; want %q, %d", token, newPos, "foo bar", len("foo bar"))
	}
}

func TestNextToken_BackslashEscapesDelimiter(t *testing.T) {
	token, newPos, err := nextToken(`foo\ bar baz`, 0, ' ', false, 1)
	if err != nil {
		t.Fatalf("nextToken: unexpected error %v", err)
	}
	if token != `foo\ bar` {
		t.Errorf("token = %q, want %q", token, `foo\ bar`)
	}
	_ = newPos
}

func TestDateDelimCount_ScansForwardForFirstSpace(t *testing.T) {
	// "Nov  2" — month name then two spaces then the day. dateDelimCount
	// must look past the month letters to find the space run, not just
	// check line[pos] itself (which is 'N', never a space).
	n := dateDelimCount(`%b %d %Y`, "Nov  2 2020", 0)
	if n != 3 {
		t.Errorf("dateDelimCount = %d, want 3 (2 input spaces + 1)", n)
	}
}

func TestDateDelimCount_NoPaddingInInput(t *testing.T) {
	n := dateDelimCount(`%b %d`, "Nov 2 2020", 0)
	if n != 2 {
		t.Errorf("dateDelimCount = %d, want 2 (1 format space + 1)", n)
	}
}
