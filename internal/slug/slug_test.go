package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Social Media", "social-media"},
		{"Email Marketing", "email-marketing"},
		{"SEO", "seo"},
		{"Inbound Sales", "inbound-sales"},
		{"Content Marketing", "content-marketing"},
		{"UI/UX & Design!", "uiux--design"},
		{"already-slugged_name", "already-slugged_name"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Make(tc.in), "input %q", tc.in)
	}
}
