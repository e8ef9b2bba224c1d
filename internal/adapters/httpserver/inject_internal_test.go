package httpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertBeforeBody(t *testing.T) {
	tag := []byte("<script></script>")

	tests := []struct {
		name string
		page string
		want string
	}{
		{"plain", "<body>x</body>", "<body>x<script></script></body>"},
		{"last occurrence", "<body><pre></body></pre></body>", "<body><pre></body></pre><script></script></body>"},
		{"upper case", "<BODY>x</BODY>", "<BODY>x<script></script></BODY>"},
		{"no body", "<p>fragment</p>", "<p>fragment</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(insertBeforeBody([]byte(tt.page), tag)))
		})
	}
}

func TestMaybeHTML(t *testing.T) {
	assert.True(t, maybeHTML("/"))
	assert.True(t, maybeHTML("/about"))
	assert.True(t, maybeHTML("/post.html"))
	assert.False(t, maybeHTML("/css/main.min.css"))
}
