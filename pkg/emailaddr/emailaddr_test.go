package emailaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a@b.com", Normalize(" A@B.com "))
	assert.Equal(t, "a@b.com", Normalize("a@b.com"))
	assert.Equal(t, "", Normalize("   "))
}

func TestValid(t *testing.T) {
	valid := []string{
		"a@b.com",
		" A@B.Com ",
		"first.last+tag@sub.example.org",
		"x@y.co",
	}
	for _, s := range valid {
		assert.True(t, Valid(s), "expected valid: %q", s)
	}

	invalid := []string{
		"",
		"plainaddress",
		"no@dot",
		"two@@at.com",
		"a@b@c.com",
		"spaces in@addr.com",
		"trailing@dot.",
		"@nodomain.com",
		"nolocal@",
	}
	for _, s := range invalid {
		assert.False(t, Valid(s), "expected invalid: %q", s)
	}
}
