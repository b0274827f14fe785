package bank

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFileValid(t *testing.T) {
	b, err := LoadFile("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Meta.Name != "tiny bank" {
		t.Errorf("meta.name = %q", b.Meta.Name)
	}
	if len(b.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(b.Questions))
	}
	q2 := b.ByID("q2")
	if q2 == nil {
		t.Fatal("ByID(q2) = nil")
	}
	if len(q2.Mocks) != 1 {
		t.Errorf("q2 mocks = %d, want 1", len(q2.Mocks))
	}
	if len(b.Meta.Aliases) != 1 || b.Meta.Aliases[0].Short != "deploy" {
		t.Errorf("aliases = %+v", b.Meta.Aliases)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := LoadFile("testdata/unknown_field.yaml")
	if err == nil {
		t.Fatal("expected strict decode to reject the unknown field")
	}
	if !strings.Contains(err.Error(), "difficulty") {
		t.Errorf("error does not name the offending field: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFile("testdata/no-such-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestByIDUnknown(t *testing.T) {
	b := &Bank{Questions: []Question{{ID: "q1"}}}
	if q := b.ByID("zzz"); q != nil {
		t.Errorf("ByID(zzz) = %+v, want nil", q)
	}
}

func TestProbeMetaTimeoutDuration(t *testing.T) {
	fallback := 2 * time.Second
	tests := []struct {
		meta *ProbeMeta
		want time.Duration
	}{
		{nil, fallback},
		{&ProbeMeta{}, fallback},
		{&ProbeMeta{Timeout: "500ms"}, 500 * time.Millisecond},
		{&ProbeMeta{Timeout: "garbage"}, fallback},
	}
	for _, tt := range tests {
		if got := tt.meta.TimeoutDuration(fallback); got != tt.want {
			t.Errorf("TimeoutDuration(%+v) = %v, want %v", tt.meta, got, tt.want)
		}
	}
}

func TestShippedBankIsValid(t *testing.T) {
	b, errs := ValidateFile("../../testdata/cka-v1.19.yaml")
	if HasErrors(errs) {
		for _, e := range errs {
			t.Logf("  %v", e)
		}
		t.Fatal("shipped bank fails validation")
	}
	if len(b.Questions) != 17 {
		t.Errorf("shipped bank has %d questions, want 17", len(b.Questions))
	}
	q10 := b.ByID("q10")
	if q10 == nil {
		t.Fatal("shipped bank has no q10")
	}
	if len(q10.Mocks) != 2 {
		t.Errorf("q10 has %d mock rules, want 2", len(q10.Mocks))
	}
}
