package endpoint

import (
	"net/url"
	"testing"

	"github.com/dealgrid/dealgrid/internal/model"
)

func TestURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		q    url.Values
		want string
	}{
		{
			name: "plain",
			base: "https://api.example.com",
			want: "https://api.example.com/api/Client/GetByKey",
		},
		{
			name: "trailing slash trimmed",
			base: "https://api.example.com/",
			want: "https://api.example.com/api/Client/GetByKey",
		},
		{
			name: "query encoded",
			base: "https://api.example.com",
			q:    Params("key", "abc 123"),
			want: "https://api.example.com/api/Client/GetByKey?key=abc+123",
		},
		{
			name: "empty values dropped",
			base: "https://api.example.com",
			q:    url.Values{"key": {""}, "": {"x"}},
			want: "https://api.example.com/api/Client/GetByKey",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ClientGetByKey.URL(tt.base, tt.q); got != tt.want {
				t.Fatalf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParams(t *testing.T) {
	t.Parallel()

	v := Params("a", "1", "b", "", "", "2", "c", "3")
	if got := v.Get("a"); got != "1" {
		t.Fatalf("a = %q", got)
	}
	if _, ok := v["b"]; ok {
		t.Fatalf("empty-valued pair kept")
	}
	if got := v.Get("c"); got != "3" {
		t.Fatalf("c = %q", got)
	}
	if len(v) != 2 {
		t.Fatalf("len = %d, want 2", len(v))
	}
}

func TestListValues(t *testing.T) {
	t.Parallel()

	q := model.ListQuery{
		Page:      2,
		PageSize:  25,
		SortBy:    "name",
		SortOrder: "desc",
		Filters:   map[string]string{"stageId": "s-1", "empty": ""},
	}
	v := ListValues(q)

	if got := v.Get("page"); got != "2" {
		t.Fatalf("page = %q", got)
	}
	if got := v.Get("pageSize"); got != "25" {
		t.Fatalf("pageSize = %q", got)
	}
	if got := v.Get("sortBy"); got != "name" {
		t.Fatalf("sortBy = %q", got)
	}
	if got := v.Get("sortOrder"); got != "desc" {
		t.Fatalf("sortOrder = %q", got)
	}
	if got := v.Get("stageId"); got != "s-1" {
		t.Fatalf("stageId = %q", got)
	}
	if _, ok := v["empty"]; ok {
		t.Fatalf("empty filter kept")
	}
}

func TestListValues_ZeroQueryOmitsEverything(t *testing.T) {
	t.Parallel()

	if v := ListValues(model.ListQuery{}); len(v) != 0 {
		t.Fatalf("zero query produced %v", v)
	}
}

func TestListValues_SortOrderNeedsSortBy(t *testing.T) {
	t.Parallel()

	v := ListValues(model.ListQuery{SortOrder: "desc"})
	if _, ok := v["sortOrder"]; ok {
		t.Fatalf("sortOrder without sortBy should be omitted")
	}
}
