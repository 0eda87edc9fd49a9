package activity

import (
	"reflect"
	"testing"
)

func TestParseProperties(t *testing.T) {
	input := "# comment\n" +
		"id=Activity ID\n" +
		"\n" +
		"distance=\"Distance (km)\"\n" +
		"  spaced  =  value  \n"

	props, keys := ParseProperties(input)

	wantKeys := []string{"id", "distance", "spaced"}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Errorf("keys = %v, want %v", keys, wantKeys)
	}
	if props["id"] != "Activity ID" {
		t.Errorf("id = %q", props["id"])
	}
	if props["distance"] != "Distance (km)" {
		t.Errorf("quotes not stripped: %q", props["distance"])
	}
	if props["spaced"] != "value" {
		t.Errorf("whitespace not trimmed: %q", props["spaced"])
	}
}

func TestValueIfFoundElseKey(t *testing.T) {
	table := map[string]string{"activity_type_running": "Running"}
	if got := ValueIfFoundElseKey(table, "activity_type_running"); got != "Running" {
		t.Errorf("got %q", got)
	}
	if got := ValueIfFoundElseKey(table, "activity_type_unknown"); got != "activity_type_unknown" {
		t.Errorf("fallback got %q", got)
	}
}
