package fileid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"doc_001.txt", "doc_001"},
		{"notes/a.b.md", "notes/a"},
		{"README", "README"},
		{".hidden", ".hidden"},
		{"./x/y.txt", "x/y"},
		{"x//y.tar.gz", "x/y"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DocID(tt.in), tt.in)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "a/c.txt", Key("a/./b/../c.txt"))
	assert.Equal(t, Key("a/b.txt"), Key("a//b.txt"), "equivalent paths share a key")
}
