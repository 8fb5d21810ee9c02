package policy

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name     string
		category string
		desc     string
		want     []string
	}{
		{
			name:     "income rule misses not_null",
			category: "income",
			desc:     "Applicant income must be positive and explicitly numeric",
			want:     []string{"not_null"},
		},
		{
			name:     "underscore read as space",
			category: "income",
			desc:     "Income must be NOT NULL, positive and numeric",
			want:     []string{},
		},
		{
			name:     "literal label",
			category: "status",
			desc:     "status in allowed_values and not_null",
			want:     []string{},
		},
		{
			name:     "loan amount gaps in ontology order",
			category: "loan_amount",
			desc:     "Loan amount strictly numeric within approved range",
			want:     []string{"positive", "within_range"},
		},
		{
			name:     "unknown category never has gaps",
			category: "unknown",
			desc:     "",
			want:     []string{},
		},
		{
			name:     "unmapped category never has gaps",
			category: "postcode",
			desc:     "anything at all",
			want:     []string{},
		},
	}

	c := NewChecker(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Check(tt.category, tt.desc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Check(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestCovers(t *testing.T) {
	if !Covers("value within range", "within_range") {
		t.Error("Expected underscore label to match spaced text")
	}
	if !Covers("must be non null", "non-null") {
		t.Error("Expected hyphen label to match spaced text")
	}
	if Covers("must be numeric", "positive") {
		t.Error("Unexpected match")
	}
}

func TestDefaultOntology(t *testing.T) {
	o := DefaultOntology()
	want := []string{"id", "income", "loan_amount", "status"}
	if got := o.Categories(); !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
	req, ok := o.Required("income")
	if !ok || len(req) != 3 {
		t.Errorf("Required(income) = %v, %v", req, ok)
	}
	if o.Source() != "embedded" {
		t.Errorf("Source() = %q", o.Source())
	}
}

func TestOntology_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ontology.yaml")
	if err := os.WriteFile(path, []byte("date:\n  required_validations: [not_null, not_future]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := LoadOntology(path)
	if err != nil {
		t.Fatalf("LoadOntology() failed: %v", err)
	}
	if _, ok := o.Required("date"); !ok {
		t.Fatal("Expected date category")
	}

	if err := os.WriteFile(path, []byte("date: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := o.Reload(path); err == nil {
		t.Fatal("Expected reload error for invalid YAML")
	}
	if _, ok := o.Required("date"); !ok {
		t.Error("Previous ontology should survive a failed reload")
	}

	if err := os.WriteFile(path, []byte("date:\n  required_validations: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := o.Reload(path); err == nil {
		t.Error("Expected error for category without validations")
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ontology.yaml")
	if err := os.WriteFile(path, []byte("income:\n  required_validations: [numeric]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := LoadOntology(path)
	if err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan error, 4)
	w, err := NewWatcher(path, o, 50*time.Millisecond, func(err error) { reloaded <- err })
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("income:\n  required_validations: [numeric, positive]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for reload")
	}

	c := NewChecker(o)
	if got := c.Check("income", "numeric"); !reflect.DeepEqual(got, []string{"positive"}) {
		t.Errorf("Check() after reload = %v", got)
	}
}

func TestDebouncer_Trigger(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("Callback called %d times, want 1", n)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("Callback called %d times after Stop(), want 0", n)
	}
}
