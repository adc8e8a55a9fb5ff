package catalog

import "testing"

func TestParseID(t *testing.T) {
	cases := []struct {
		raw  string
		want ID
		ok   bool
	}{
		{"project:write", "project:write", true},
		{"  Project:Write ", "project:write", true},
		{"fin_report:export", "fin_report:export", true},
		{"project", "", false},
		{"project:", "", false},
		{":write", "", false},
		{"project:write:extra", "", false},
		{"Project Write", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseID(tc.raw)
		if tc.ok && err != nil {
			t.Fatalf("ParseID(%q): unexpected error %v", tc.raw, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseID(%q): expected error", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("ParseID(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIDParts(t *testing.T) {
	id := ID("project:write")
	if id.Resource() != "project" {
		t.Fatalf("resource = %q", id.Resource())
	}
	if id.Action() != "write" {
		t.Fatalf("action = %q", id.Action())
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	c := New()
	if err := c.Register(Permission{ID: "project:read"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register(Permission{ID: "project:read"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if !c.Exists("project:read") {
		t.Fatalf("expected project:read registered")
	}
}

func TestLoadRejectsWholeBatch(t *testing.T) {
	_, err := Load([]Permission{
		{ID: "project:read"},
		{ID: "not-valid"},
	})
	if err == nil {
		t.Fatalf("expected load failure on malformed id")
	}
}

func TestDefaultCatalogListsInOrder(t *testing.T) {
	c := Default()
	perms := c.List()
	if len(perms) == 0 {
		t.Fatalf("expected seeded permissions")
	}
	if perms[0].ID != PermProjectRead {
		t.Fatalf("expected first seeded permission %s, got %s", PermProjectRead, perms[0].ID)
	}
	if len(c.AllIDs()) != len(perms) {
		t.Fatalf("AllIDs size mismatch")
	}
}

func TestSetEquality(t *testing.T) {
	a := NewSet("project:read", "project:write", "project:write")
	b := NewSet("project:write", "project:read")
	if !a.Equal(b) {
		t.Fatalf("expected sets equal irrespective of order and duplicates")
	}
	if a.Equal(NewSet("project:read")) {
		t.Fatalf("expected inequality on size mismatch")
	}
	ids := a.Slice()
	if len(ids) != 2 || ids[0] != "project:read" || ids[1] != "project:write" {
		t.Fatalf("slice not sorted: %v", ids)
	}
}
