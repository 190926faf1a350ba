package utils_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/shop_backend/utils"
)

func TestClampPage(t *testing.T) {
	cases := []struct {
		skip, limit         int
		wantSkip, wantLimit int
	}{
		{0, 10, 0, 10},
		{20, 50, 20, 50},
		{-5, 10, 0, 10},
		{0, 0, 0, 100},
		{0, -1, 0, 100},
		{0, 500, 0, 100},
	}
	for _, tc := range cases {
		skip, limit := utils.ClampPage(tc.skip, tc.limit)
		if skip != tc.wantSkip || limit != tc.wantLimit {
			t.Fatalf("ClampPage(%d, %d) = (%d, %d), want (%d, %d)",
				tc.skip, tc.limit, skip, limit, tc.wantSkip, tc.wantLimit)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := utils.NormalizePhone("+16502530000", "")
	if err != nil {
		t.Fatalf("NormalizePhone: %v", err)
	}
	if got != "+16502530000" {
		t.Fatalf("expected E.164 passthrough, got %q", got)
	}

	got, err = utils.NormalizePhone("(650) 253-0000", "US")
	if err != nil {
		t.Fatalf("NormalizePhone: %v", err)
	}
	if got != "+16502530000" {
		t.Fatalf("expected +16502530000, got %q", got)
	}

	for _, raw := range []string{"", "abc", "12"} {
		if _, err := utils.NormalizePhone(raw, "US"); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
		var invalid *utils.ValidationError
		if _, err := utils.NormalizePhone(raw, "US"); !errors.As(err, &invalid) {
			t.Fatalf("expected ValidationError for %q", raw)
		}
	}
}
