package messaging

import (
	"errors"
	"testing"
)

func TestNewFromDriver(t *testing.T) {
	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := NewFromDriver("rabbitmq", FactoryOptions{})
		if !errors.Is(err, ErrUnknownDriver) {
			t.Fatalf("expected ErrUnknownDriver, got %v", err)
		}
	})

	t.Run("EmptyDriver", func(t *testing.T) {
		_, err := NewFromDriver("  ", FactoryOptions{})
		if !errors.Is(err, ErrUnknownDriver) {
			t.Fatalf("expected ErrUnknownDriver, got %v", err)
		}
	})
}
