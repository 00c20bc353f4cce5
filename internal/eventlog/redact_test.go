package eventlog_test

import (
	"testing"

	"logship/internal/eventlog"
)

func TestRedactorMasksCaseInsensitively(t *testing.T) {
	redactor := eventlog.NewRedactor([]string{"Password", "api_key"})

	in := eventlog.Fields{
		"password": "hunter2",
		"API_KEY":  "secret",
		"query":    "machine learning",
	}
	out := redactor.Apply(in)

	if out["password"] != eventlog.MaskToken {
		t.Fatalf("password not masked: %v", out["password"])
	}
	if out["API_KEY"] != eventlog.MaskToken {
		t.Fatalf("API_KEY not masked: %v", out["API_KEY"])
	}
	if out["query"] != "machine learning" {
		t.Fatalf("non-sensitive field altered: %v", out["query"])
	}
}

func TestRedactorNeverMutatesInput(t *testing.T) {
	redactor := eventlog.NewRedactor([]string{"token"})
	in := eventlog.Fields{"token": "abc"}

	out := redactor.Apply(in)
	if in["token"] != "abc" {
		t.Fatal("Apply mutated its input")
	}
	if out["token"] != eventlog.MaskToken {
		t.Fatalf("token not masked: %v", out["token"])
	}
}

func TestRedactorEmptySetPassesThrough(t *testing.T) {
	redactor := eventlog.NewRedactor(nil)
	in := eventlog.Fields{"password": "still here"}
	out := redactor.Apply(in)
	if out["password"] != "still here" {
		t.Fatalf("empty redaction set must pass values through, got %v", out["password"])
	}
}

func TestRedactorNilFields(t *testing.T) {
	redactor := eventlog.NewRedactor([]string{"password"})
	if out := redactor.Apply(nil); out != nil {
		t.Fatalf("Apply(nil) = %v, want nil", out)
	}
}
