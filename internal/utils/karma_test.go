package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKarmaLevel(t *testing.T) {
	cases := map[int]string{
		-5:   "newcomer",
		10:   "newcomer",
		11:   "member",
		51:   "regular",
		201:  "veteran",
		1000: "legend",
	}
	for karma, want := range cases {
		assert.Equal(t, want, KarmaLevel(karma), "karma %d", karma)
	}
}
