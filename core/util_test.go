package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: " plain text ", want: "plain text"},
		{in: "<b>bold</b>", want: "bold"},
		{in: "Tom & Jerry's", want: "Tom & Jerry's"},
		{in: "a < b", want: "a < b"},
		{in: "<script>alert(1)</script>ok", want: "ok"},
		{in: "&lt;script&gt;alert(1)&lt;/script&gt;ok", want: "ok"},
		{in: "&amp;lt;i&amp;gt;twice&amp;lt;/i&amp;gt;", want: "twice"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := StripTags(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<script")
		})
	}
}
