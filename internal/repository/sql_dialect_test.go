package repository

import "testing"

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("expected ILIKE for postgres, got %s", got)
	}
	if got := likeOperatorByDialect("PostgreSQL"); got != "ILIKE" {
		t.Fatalf("expected ILIKE for postgresql, got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("expected LIKE for sqlite, got %s", got)
	}
	if got := likeOperatorByDialect(""); got != "LIKE" {
		t.Fatalf("expected LIKE fallback, got %s", got)
	}
}

func TestBuildKeywordLikeConditionByDialect(t *testing.T) {
	cond, args := buildKeywordLikeConditionByDialect("sqlite", []string{"name", "slug", ""})
	if cond != "name LIKE ? OR slug LIKE ?" {
		t.Fatalf("unexpected condition: %s", cond)
	}
	if args != 2 {
		t.Fatalf("expected 2 args, got %d", args)
	}

	cond, args = buildKeywordLikeConditionByDialect("postgres", []string{"email"})
	if cond != "email ILIKE ?" {
		t.Fatalf("unexpected condition: %s", cond)
	}
	if args != 1 {
		t.Fatalf("expected 1 arg, got %d", args)
	}
}
