package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MuskanShrestha58/FirecrawlDemo/models"
)

func TestResolveFields(t *testing.T) {
	t.Cleanup(func() { fields, fieldsFile = nil, "" })

	fields, fieldsFile = nil, ""
	got, err := resolveFields()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.OrDefault()) != len(models.DefaultFields()) {
		t.Errorf("no flags should fall back to the defaults, got %q", got)
	}

	fields = []string{" Address ", "", "Price"}
	got, err = resolveFields()
	if err != nil {
		t.Fatal(err)
	}
	if want := (models.FieldSpec{"Address", "Price"}); !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %q, want %q", got, want)
	}

	path := filepath.Join(t.TempDir(), "fields.yaml")
	if err := os.WriteFile(path, []byte("- Beds\n- Baths\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fieldsFile = path
	got, err = resolveFields()
	if err != nil {
		t.Fatal(err)
	}
	if want := (models.FieldSpec{"Beds", "Baths"}); !reflect.DeepEqual(got, want) {
		t.Errorf("fields file should win, got %q", got)
	}
}
