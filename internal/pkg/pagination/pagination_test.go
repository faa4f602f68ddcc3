package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestGetParams(t *testing.T) {
	cases := []struct {
		query      string
		page       int
		limit      int
		wantOffset int
	}{
		{"", 1, DefaultLimit, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?page=0&limit=-5", 1, DefaultLimit, 0},
		{"?page=two&limit=many", 1, DefaultLimit, 0},
		{"?limit=1000", 1, MaxLimit, 0},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			app := fiber.New()
			var got *Params
			app.Get("/", func(c *fiber.Ctx) error {
				got = GetParams(c)
				return nil
			})
			if _, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil)); err != nil {
				t.Fatalf("request: %v", err)
			}
			if got.Page != tc.page || got.Limit != tc.limit || got.Offset != tc.wantOffset {
				t.Errorf("expected %d/%d/%d, got %+v", tc.page, tc.limit, tc.wantOffset, got)
			}
		})
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(&Params{Page: 2, Limit: 10}, 25)
	if meta.TotalPages != 3 || !meta.HasNext || !meta.HasPrev {
		t.Errorf("unexpected meta %+v", meta)
	}

	empty := GetMeta(&Params{Page: 1, Limit: 10}, 0)
	if empty.TotalPages != 0 || empty.HasNext || empty.HasPrev {
		t.Errorf("unexpected empty meta %+v", empty)
	}
}
