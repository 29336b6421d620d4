package connectors

import (
	"context"
	"errors"
	"testing"

	"sentry-hq/conduit/pkg/comm"
)

type stubConnector struct {
	Base
}

func newStub(kind comm.ConnectorKind, ops ...string) *stubConnector {
	return &stubConnector{Base: NewBase(kind, ops...)}
}

func (s *stubConnector) Execute(_ context.Context, operation string, _ map[string]any) (any, error) {
	if !s.Supports(operation) {
		return nil, NewUnsupportedOperationError(s.Kind(), operation)
	}
	return map[string]any{"ok": true}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(nil); err == nil {
		t.Error("nil connector must be rejected")
	}
	if err := reg.Register(newStub("teleporter")); err == nil {
		t.Error("unknown kind must be rejected")
	}

	fetch := newStub(comm.KindWebFetch, "fetch", "download")
	if err := reg.Register(fetch); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(newStub(comm.KindWebFetch, "fetch")); err == nil {
		t.Error("duplicate kind must be rejected")
	}

	got, err := reg.Get(comm.KindWebFetch)
	if err != nil {
		t.Fatal(err)
	}
	if got != Connector(fetch) {
		t.Error("Get returned a different connector")
	}

	_, err = reg.Get(comm.KindSlack)
	var notReg *NotRegisteredError
	if !errors.As(err, &notReg) {
		t.Fatalf("Get(slack) error = %v, want NotRegisteredError", err)
	}
	if notReg.Kind != comm.KindSlack {
		t.Errorf("NotRegisteredError.Kind = %s, want slack", notReg.Kind)
	}
}

func TestRegistryKindsAreSorted(t *testing.T) {
	reg := NewRegistry()
	for _, k := range []comm.ConnectorKind{comm.KindWebSearch, comm.KindEmailSMTP, comm.KindRSS} {
		if err := reg.Register(newStub(k)); err != nil {
			t.Fatal(err)
		}
	}

	kinds := reg.Kinds()
	want := []comm.ConnectorKind{comm.KindEmailSMTP, comm.KindRSS, comm.KindWebSearch}
	if len(kinds) != len(want) {
		t.Fatalf("Kinds length = %d, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Kinds[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestBaseEnableDisable(t *testing.T) {
	c := newStub(comm.KindRSS, "fetch")
	if !c.Enabled() {
		t.Fatal("connectors start enabled")
	}
	c.SetEnabled(false)
	if c.Enabled() {
		t.Error("SetEnabled(false) did not stick")
	}
	c.SetEnabled(true)
	if !c.Enabled() {
		t.Error("SetEnabled(true) did not stick")
	}
}

func TestBaseOperationsCopy(t *testing.T) {
	c := newStub(comm.KindWebFetch, "fetch", "download")
	ops := c.Operations()
	ops[0] = "mutated"
	if c.Operations()[0] != "fetch" {
		t.Error("Operations must return a copy")
	}
	if !c.Supports("download") || c.Supports("mutated") {
		t.Error("Supports disagrees with the declared operation set")
	}
}
