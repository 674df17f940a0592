package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"root", "/", "/"},
		{"empty", "", "/"},
		{"trailing slash", "/pravidla/", "/pravidla"},
		{"irrelevant params dropped", "/?trial=1&fbclid=abc", "/"},
		{"query sorted", "/page?b=2&a=1&a=0", "/page?a=0&a=1&b=2"},
		{"tables alias path", "/tabulky", "/tables"},
		{"tables alias query", "/?tables=zbrane", "/tables?tables=zbrane"},
		{"czech tables query", "/?tabulky=zbrane,zbroj", "/tables?tables=zbrane%2Czbroj"},
		{"tables alias path with czech param", "/tabulky?tabulky=zbroj&trial=1", "/tables?tables=zbroj"},
		{"tables query on other path kept", "/page?tables=x", "/page?tables=x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IdentityFromString(tc.raw))
		})
	}
}

func TestIdentity_NilURL(t *testing.T) {
	assert.Equal(t, "/", Identity(nil))
}

func TestIdentity_FromRequestURL(t *testing.T) {
	u, err := url.Parse("https://pravidla.drdplus.info/?fbclid=x&tables")
	require.NoError(t, err)
	assert.Equal(t, "/tables?tables=", Identity(u))
}

func TestSlotKey(t *testing.T) {
	a := SlotKey(TagMain, "/")
	assert.Len(t, a, 64)
	assert.Equal(t, a, SlotKey(TagMain, "/"))
	assert.NotEqual(t, a, SlotKey(TagGateway, "/"))
	assert.NotEqual(t, a, SlotKey(TagMain, "/other"))
}
