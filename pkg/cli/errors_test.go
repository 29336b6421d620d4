package cli

import (
	"errors"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("policies", `duplicate policy for connector kind "rss"`)
	want := `config error in policies: duplicate policy for connector kind "rss"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConfigErrorWithoutField(t *testing.T) {
	err := NewConfigError("", "read config file: no such file")
	want := "config error: read config file: no such file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlying := errors.New("database is locked")
	err := NewCommandError("evidence purge", underlying)

	if err.Error() != "command evidence purge failed: database is locked" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is must reach the wrapped error")
	}
}
