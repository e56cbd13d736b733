package identity

import "testing"

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "A@B.com", want: "a@b.com"},
		{in: "  Ana@Example.COM\t", want: "ana@example.com"},
		{in: "", want: ""},
		{in: "   ", want: ""},
	}

	for _, tc := range cases {
		got := NormalizeEmail(tc.in)
		if got != tc.want {
			t.Fatalf("NormalizeEmail(%q)=%q want %q", tc.in, got, tc.want)
		}
		if again := NormalizeEmail(got); again != got {
			t.Fatalf("NormalizeEmail not idempotent for %q: %q -> %q", tc.in, got, again)
		}
	}
}
