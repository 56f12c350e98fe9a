package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChain(t *testing.T) {
	appendMW := func(name string, order *[]string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				*order = append(*order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	t.Run("FirstMiddlewareIsOutermost", func(t *testing.T) {
		// Arrange
		var order []string
		h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		})

		// Act
		Chain(h,
			appendMW("outer", &order),
			appendMW("middle", &order),
			appendMW("inner", &order),
		).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		// Assert
		want := []string{"outer", "middle", "inner", "handler"}
		if len(order) != len(want) {
			t.Fatalf("expected order %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, order)
			}
		}
	})

	t.Run("NoMiddlewares", func(t *testing.T) {
		called := false
		h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		})

		Chain(h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !called {
			t.Fatal("expected the handler to be called")
		}
	})
}
