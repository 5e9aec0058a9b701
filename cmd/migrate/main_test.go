// Platewise | 2026
// main_test.go

package main

import "testing"

func TestPgxURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "postgres scheme",
			in:   "postgres://app:pw@localhost:5432/platewise?sslmode=disable",
			want: "pgx5://app:pw@localhost:5432/platewise?sslmode=disable",
		},
		{
			name: "postgresql scheme",
			in:   "postgresql://app@db/platewise",
			want: "pgx5://app@db/platewise",
		},
		{
			name: "already pgx5",
			in:   "pgx5://app@db/platewise",
			want: "pgx5://app@db/platewise",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := pgxURL(tc.in); got != tc.want {
				t.Fatalf("pgxURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
