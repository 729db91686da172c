package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Ensemble/internal/domain"
)

func nopHandler(_ context.Context, _ domain.Execution) error {
	return nil
}

func TestRegistry_Register(t *testing.T) {
	r := New()

	err := r.Register(domain.Descriptor{
		Module:   "db",
		Action:   "connect",
		Phase:    1,
		Contexts: []string{"startup"},
		Handler:  nopHandler,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Count() != 1 {
		t.Errorf("expected 1 action, got %d", r.Count())
	}
	if !r.Has(domain.ActionID{Module: "db", Action: "connect"}) {
		t.Error("registered action should be found")
	}
}

func TestRegistry_Register_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		desc    domain.Descriptor
		wantErr error
	}{
		{
			name:    "empty module",
			desc:    domain.Descriptor{Action: "connect", Handler: nopHandler},
			wantErr: ErrEmptyID,
		},
		{
			name:    "empty action",
			desc:    domain.Descriptor{Module: "db", Handler: nopHandler},
			wantErr: ErrEmptyID,
		},
		{
			name:    "negative phase",
			desc:    domain.Descriptor{Module: "db", Action: "connect", Phase: -1, Handler: nopHandler},
			wantErr: ErrNegativePhase,
		},
		{
			name:    "nil handler",
			desc:    domain.Descriptor{Module: "db", Action: "connect"},
			wantErr: ErrNilHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := r.Register(tt.desc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := New()

	desc := domain.Descriptor{Module: "db", Action: "connect", Handler: nopHandler}
	if err := r.Register(desc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Register(desc)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := New()
	id := domain.ActionID{Module: "db", Action: "connect"}

	_, err := r.Lookup(id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	r.MustRegister(domain.Descriptor{Module: "db", Action: "connect", Phase: 2, Handler: nopHandler})

	desc, err := r.Lookup(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.Phase != 2 {
		t.Errorf("expected phase 2, got %d", desc.Phase)
	}
}

func TestRegistry_MustRegister_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on invalid descriptor")
		}
	}()

	r := New()
	r.MustRegister(domain.Descriptor{})
}

func TestRegistry_All_Sorted(t *testing.T) {
	r := New()
	r.MustRegister(domain.Descriptor{Module: "zz", Action: "last", Handler: nopHandler})
	r.MustRegister(domain.Descriptor{Module: "aa", Action: "first", Handler: nopHandler})
	r.MustRegister(domain.Descriptor{Module: "mm", Action: "middle", Handler: nopHandler})

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(all))
	}
	if all[0].Module != "aa" || all[1].Module != "mm" || all[2].Module != "zz" {
		t.Errorf("descriptors not sorted: %v, %v, %v", all[0].ID(), all[1].ID(), all[2].ID())
	}
}

func TestRegistry_ForKind(t *testing.T) {
	r := New()
	r.MustRegister(domain.Descriptor{
		Module: "db", Action: "connect",
		Contexts: []string{"startup"},
		Handler:  nopHandler,
	})
	r.MustRegister(domain.Descriptor{
		Module: "db", Action: "close",
		Contexts: []string{"shutdown"},
		Handler:  nopHandler,
	})
	r.MustRegister(domain.Descriptor{
		Module: "log", Action: "flush",
		Contexts: []string{"startup", "shutdown"},
		Handler:  nopHandler,
	})

	startup := r.ForKind("startup")
	if len(startup) != 2 {
		t.Errorf("expected 2 startup actions, got %d", len(startup))
	}

	shutdown := r.ForKind("shutdown")
	if len(shutdown) != 2 {
		t.Errorf("expected 2 shutdown actions, got %d", len(shutdown))
	}

	if len(r.ForKind("unknown")) != 0 {
		t.Error("expected no actions for unknown kind")
	}
}

func TestRegistry_Kinds(t *testing.T) {
	r := New()
	r.MustRegister(domain.Descriptor{
		Module: "db", Action: "connect",
		Contexts: []string{"startup", "healthcheck"},
		Handler:  nopHandler,
	})
	r.MustRegister(domain.Descriptor{
		Module: "db", Action: "close",
		Contexts: []string{"shutdown"},
		Handler:  nopHandler,
	})

	kinds := r.Kinds()
	if len(kinds) != 3 {
		t.Fatalf("expected 3 kinds, got %d: %v", len(kinds), kinds)
	}
	// Отсортированы по алфавиту.
	if kinds[0] != "healthcheck" || kinds[1] != "shutdown" || kinds[2] != "startup" {
		t.Errorf("unexpected kinds order: %v", kinds)
	}
}
