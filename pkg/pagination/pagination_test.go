package pagination

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", "/?"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return FromContext(c)
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		limit  int
		offset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=50&offset=10", 50, 10},
		{"page alias", "page=3&page_size=25", 25, 50},
		{"page one", "page=1&page_size=25", 25, 0},
		{"capped", "limit=5000", MaxLimit, 0},
		{"negative", "limit=-5&offset=-2", DefaultLimit, 0},
		{"garbage", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := paramsFor(t, tc.query)
			if p.Limit != tc.limit || p.Offset != tc.offset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					p.Limit, p.Offset, tc.limit, tc.offset)
			}
		})
	}
}

func TestQueryForwarding(t *testing.T) {
	p := Params{Limit: 25, Offset: 75}
	vals := p.Query(url.Values{"status": []string{"scheduled"}})
	if vals.Get("limit") != "25" || vals.Get("offset") != "75" {
		t.Errorf("unexpected values: %v", vals)
	}
	if vals.Get("status") != "scheduled" {
		t.Error("existing query params should survive")
	}

	if vals := (Params{Limit: 10}).Query(nil); vals.Get("limit") != "10" {
		t.Error("nil values should be allocated")
	}
}
