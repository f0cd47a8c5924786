package host

import "testing"

func TestLister_Matches(t *testing.T) {
	t.Parallel()

	l := NewLister([]string{"nginx", "php-fpm", " Caddy ", ""})

	cases := []struct {
		name string
		want bool
	}{
		{"nginx", true},
		{"nginx: worker process", true},
		{"NGINX", true},
		{"php-fpm8.2", true},
		{"caddy", true},
		{"postgres", false},
		{"enginx", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := l.matches(tc.name); got != tc.want {
			t.Errorf("matches(%q)=%v want %v", tc.name, got, tc.want)
		}
	}
}
