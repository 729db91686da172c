package domain

import "testing"

func TestActionID_String(t *testing.T) {
	id := ActionID{Module: "db", Action: "connect"}
	if got := id.String(); got != "db/connect" {
		t.Errorf("expected db/connect, got %s", got)
	}
}

func TestActionID_IsZero(t *testing.T) {
	if !(ActionID{}).IsZero() {
		t.Error("empty id should be zero")
	}
	if (ActionID{Module: "db"}).IsZero() {
		t.Error("id with module should not be zero")
	}
}

func TestParseActionID(t *testing.T) {
	tests := []struct {
		input   string
		want    ActionID
		wantErr bool
	}{
		{"db/connect", ActionID{Module: "db", Action: "connect"}, false},
		{"a/b", ActionID{Module: "a", Action: "b"}, false},
		{"cache/warm/up", ActionID{Module: "cache", Action: "warm/up"}, false},
		{"noslash", ActionID{}, true},
		{"/action", ActionID{}, true},
		{"module/", ActionID{}, true},
		{"", ActionID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseActionID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDescriptor_ParticipatesIn(t *testing.T) {
	d := &Descriptor{
		Module:   "db",
		Action:   "connect",
		Contexts: []string{"startup", "healthcheck"},
	}

	if !d.ParticipatesIn("startup") {
		t.Error("should participate in startup")
	}
	if d.ParticipatesIn("shutdown") {
		t.Error("should not participate in shutdown")
	}

	// Пустой список: действие нигде не участвует.
	empty := &Descriptor{Module: "a", Action: "b"}
	if empty.ParticipatesIn("startup") {
		t.Error("descriptor without contexts should not participate anywhere")
	}
}

func TestContextState_IsTerminal(t *testing.T) {
	tests := []struct {
		state ContextState
		want  bool
	}{
		{ContextStatePending, false},
		{ContextStateRunning, false},
		{ContextStateDone, true},
		{ContextStateError, true},
	}

	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}
