package common

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func newTestContext() *Context {
	req := httptest.NewRequest("GET", "http://example.com/foo", nil)
	return NewContext(&Application{DocumentRoot: "/srv"}, req)
}

// recorder returns a middleware that appends before/after markers to order
func recorder(name string, priority int, order *[]string) Middleware {
	return Middleware{
		Name:     name,
		Priority: priority,
		Handler: func(c *Context, next Next) (Result, error) {
			*order = append(*order, name+"-before")
			res, err := next()
			*order = append(*order, name+"-after")
			return res, err
		},
	}
}

func TestMiddlewareChainOrder(t *testing.T) {
	var order []string

	// Register out of priority order
	chain := NewMiddlewareChain(
		recorder("thirty", 30, &order),
		recorder("ten", 10, &order),
		recorder("twenty", 20, &order),
	).Append(Middleware{
		Name:     "final",
		Priority: 100,
		Handler: func(c *Context, next Next) (Result, error) {
			order = append(order, "final-handler")
			return Text("OK"), nil
		},
	})

	res, err := chain.Sorted().Dispatch(newTestContext())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Kind() != KindText || res.Text() != "OK" {
		t.Errorf("Expected text result %q, got %s %q", "OK", res.Kind(), res.Text())
	}

	expected := []string{
		"ten-before",
		"twenty-before",
		"thirty-before",
		"final-handler",
		"thirty-after",
		"twenty-after",
		"ten-after",
	}

	if len(order) != len(expected) {
		t.Fatalf("Expected %d middleware calls, got %d: %v", len(expected), len(order), order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("Expected middleware call %d to be %q, got %q", i, v, order[i])
		}
	}
}

func TestMiddlewareChainSortedIsStable(t *testing.T) {
	chain := NewMiddlewareChain(
		Middleware{Name: "a", Priority: 5},
		Middleware{Name: "b", Priority: 1},
		Middleware{Name: "c", Priority: 5},
		Middleware{Name: "d", Priority: 1},
	)

	sorted := chain.Sorted()

	expected := []string{"b", "d", "a", "c"}
	for i, name := range expected {
		if sorted[i].Name != name {
			t.Errorf("Expected position %d to be %q, got %q", i, name, sorted[i].Name)
		}
	}

	// The original chain is untouched
	if chain[0].Name != "a" {
		t.Errorf("Expected Sorted to leave the original chain unchanged, got %q first", chain[0].Name)
	}
}

func TestMiddlewareChainShortCircuit(t *testing.T) {
	var order []string
	rejected := Unauthorized()

	chain := NewMiddlewareChain(
		recorder("outer", 1, &order),
		Middleware{
			Name:     "auth",
			Priority: 2,
			Handler: func(c *Context, next Next) (Result, error) {
				order = append(order, "auth")
				return Empty(), rejected
			},
		},
		recorder("inner", 3, &order),
		Middleware{
			Name:     "final",
			Priority: 4,
			Handler: func(c *Context, next Next) (Result, error) {
				order = append(order, "final-handler")
				return Text("unreachable"), nil
			},
		},
	)

	_, err := chain.Dispatch(newTestContext())
	if !errors.Is(err, rejected) {
		t.Errorf("Expected the auth error to propagate, got %v", err)
	}

	expected := []string{"outer-before", "auth", "outer-after"}
	if len(order) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("Expected call %d to be %q, got %q", i, v, order[i])
		}
	}
}

func TestMiddlewareChainTerminal(t *testing.T) {
	var reachedEnd bool

	// The last middleware calls next past the end of the chain
	chain := NewMiddlewareChain(Middleware{
		Name: "last",
		Handler: func(c *Context, next Next) (Result, error) {
			res, err := next()
			reachedEnd = res.Kind() == KindEmpty && err == nil
			return Text("done"), nil
		},
	})

	res, err := chain.Dispatch(newTestContext())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reachedEnd {
		t.Error("Expected the continuation past the end of the chain to return an empty result")
	}
	if res.Text() != "done" {
		t.Errorf("Expected %q, got %q", "done", res.Text())
	}
}

func TestEmptyMiddlewareChain(t *testing.T) {
	res, err := NewMiddlewareChain().Dispatch(newTestContext())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Kind() != KindEmpty {
		t.Errorf("Expected an empty result, got %s", res.Kind())
	}
}

func TestMiddlewareChainNextCalledTwice(t *testing.T) {
	calls := 0

	chain := NewMiddlewareChain(
		Middleware{
			Name: "retry",
			Handler: func(c *Context, next Next) (Result, error) {
				if _, err := next(); err == nil {
					t.Error("Expected the first attempt to fail")
				}
				return next()
			},
		},
		Middleware{
			Name: "flaky",
			Handler: func(c *Context, next Next) (Result, error) {
				calls++
				if calls == 1 {
					return Empty(), errors.New("first call fails")
				}
				return Text("second call"), nil
			},
		},
	)

	res, err := chain.Dispatch(newTestContext())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected the next middleware to run twice, ran %d times", calls)
	}
	if res.Text() != "second call" {
		t.Errorf("Expected %q, got %q", "second call", res.Text())
	}
}

func TestMiddlewareChainAppendAndPrepend(t *testing.T) {
	chain := NewMiddlewareChain(Middleware{Name: "middle"})
	chain = chain.Append(Middleware{Name: "last"})
	chain = chain.Prepend(Middleware{Name: "first"})

	expected := []string{"first", "middle", "last"}
	if len(chain) != len(expected) {
		t.Fatalf("Expected %d middlewares, got %d", len(expected), len(chain))
	}
	for i, name := range expected {
		if chain[i].Name != name {
			t.Errorf("Expected position %d to be %q, got %q", i, name, chain[i].Name)
		}
	}
}

func TestMiddlewareSeesContext(t *testing.T) {
	chain := NewMiddlewareChain(
		Middleware{
			Name: "setter",
			Handler: func(c *Context, next Next) (Result, error) {
				c.Set("user", "alice")
				c.Response.SetHeader("X-Test", "value")
				return next()
			},
		},
		Middleware{
			Name: "reader",
			Handler: func(c *Context, next Next) (Result, error) {
				user, _ := c.Get("user")
				return Text(user.(string) + "@" + c.Application.DocumentRoot), nil
			},
		},
	)

	ctx := newTestContext()
	res, err := chain.Dispatch(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Text() != "alice@/srv" {
		t.Errorf("Expected %q, got %q", "alice@/srv", res.Text())
	}
	if ctx.Response.Header("x-test") != "value" {
		t.Errorf("Expected X-Test header to be %q, got %q", "value", ctx.Response.Header("x-test"))
	}
}
