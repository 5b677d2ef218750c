package utils

import "testing"

func TestBuildDestinationsListCacheKey(t *testing.T) {
	beach := "beach"
	padded := "beach "
	blank := ""

	tests := []struct {
		limit, offset int
		category      *string
		want          string
	}{
		{20, 0, nil, `destinations:list:v2:limit=20:offset=0:category*`},
		{2, 2, &beach, `destinations:list:v2:limit=2:offset=2:category="beach"`},
		{2, 2, &padded, `destinations:list:v2:limit=2:offset=2:category="beach "`},
		{20, 0, &blank, `destinations:list:v2:limit=20:offset=0:category=""`},
	}

	for _, tt := range tests {
		if got := BuildDestinationsListCacheKey(tt.limit, tt.offset, tt.category); got != tt.want {
			t.Fatalf("got %q, want %q", got, tt.want)
		}
	}
}

func TestBuildDestinationsSearchCacheKey_CaseInsensitive(t *testing.T) {
	if BuildDestinationsSearchCacheKey("Beach") != BuildDestinationsSearchCacheKey("beach") {
		t.Fatalf("search keys should fold case like the query does")
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("2b1c8f3e-6c1a-4f57-9b0a-3f1e2d4c5b6a") {
		t.Fatalf("expected valid uuid")
	}
	for _, s := range []string{"", "1", "not-a-uuid", "2b1c8f3e-6c1a-4f57-9b0a"} {
		if IsUUID(s) {
			t.Fatalf("%q should not be a uuid", s)
		}
	}
}
