package di

import "testing"

type counter struct{ n int }

func TestGetToken_ResolvesOnce(t *testing.T) {
	c := NewContainer()
	tok := NewToken[*counter]("test:counter")

	calls := 0
	RegisterToken(c, tok, func(ServiceRegistry) *counter {
		calls++
		return &counter{n: 42}
	})

	a := GetToken(c, tok)
	b := GetToken(c, tok)

	if a != b {
		t.Fatal("expected the same instance on repeated lookups")
	}
	if calls != 1 {
		t.Fatalf("factory called %d times, want 1", calls)
	}
	if a.n != 42 {
		t.Fatalf("n = %d, want 42", a.n)
	}
}

func TestGetToken_FactoryCanResolveDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("config", "mainnet")

	tok := NewToken[string]("test:greeting")
	RegisterToken(c, tok, func(sr ServiceRegistry) string {
		return "hello " + sr.Get("config").(string)
	})

	if got := GetToken(c, tok); got != "hello mainnet" {
		t.Fatalf("got %q", got)
	}
}

func TestGet_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown service")
		}
	}()
	NewContainer().Get("missing")
}

func TestGet_CyclePanics(t *testing.T) {
	c := NewContainer()
	c.RegisterFactory("a", func(sr ServiceRegistry) any { return sr.Get("b") })
	c.RegisterFactory("b", func(sr ServiceRegistry) any { return sr.Get("a") })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for dependency cycle")
		}
	}()
	c.Get("a")
}
