package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.properties")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProjectorRow(t *testing.T) {
	path := writeTemplate(t, "id=Activity ID\nactivityName=Name\n")
	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	p := NewProjector(&out, schema)
	if err := p.WriteHeader(); err != nil {
		t.Fatal(err)
	}

	p.SetColumn("id", "100")
	p.SetColumn("activityName", `a "quoted" name`)
	p.SetColumn("duration", "1:00:00") // inactive, must not leak into the row
	if err := p.WriteRow(); err != nil {
		t.Fatal(err)
	}

	want := "\"Activity ID\",\"Name\"\r\n" +
		"\"100\",\"a \"\"quoted\"\" name\"\r\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestProjectorUnsetColumnsStayEmpty(t *testing.T) {
	path := writeTemplate(t, "id=Activity ID\ndevice=Device\n")
	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	p := NewProjector(&out, schema)
	p.SetColumn("id", "7")
	if err := p.WriteRow(); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "\"7\",\"\"\r\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// row state must reset between rows
	out.Reset()
	p.SetColumn("device", "Forerunner 945 10.0")
	if err := p.WriteRow(); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "\"\",\"Forerunner 945 10.0\"\r\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSchemaActivity(t *testing.T) {
	path := writeTemplate(t, "# comment line\nid=Activity ID\ngear=Gear\n")
	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatal(err)
	}
	if !schema.IsActive("gear") {
		t.Error("gear should be active")
	}
	if schema.IsActive("device") {
		t.Error("device should be inactive")
	}
	if got := schema.Columns(); len(got) != 2 || got[0] != "id" || got[1] != "gear" {
		t.Errorf("unexpected column order: %v", got)
	}
}

func TestLoadSchemaMissingFile(t *testing.T) {
	if _, err := LoadSchema(filepath.Join(t.TempDir(), "nope.properties")); err == nil {
		t.Fatal("expected error for missing template")
	}
}
