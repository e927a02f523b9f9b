package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3f1c9a2e-1111-2222-3333-444455556666", "3f1c9a2e"},
		{"cash", "cash"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Short(tt.input))
	}
}

func TestResolve(t *testing.T) {
	ids := []string{"3f1c9a2e-aaaa", "3f1c0000-bbbb", "77aa0000-cccc"}

	got, err := Resolve("77", ids)
	require.NoError(t, err)
	assert.Equal(t, "77aa0000-cccc", got)

	got, err = Resolve("3f1c9", ids)
	require.NoError(t, err)
	assert.Equal(t, "3f1c9a2e-aaaa", got)

	got, err = Resolve("3f1c0000-bbbb", ids)
	require.NoError(t, err)
	assert.Equal(t, "3f1c0000-bbbb", got)
}

func TestResolve_Errors(t *testing.T) {
	ids := []string{"3f1c9a2e-aaaa", "3f1c0000-bbbb"}
	badInputs := []string{
		"",
		"3f1c",
		"zz",
	}
	for _, input := range badInputs {
		_, err := Resolve(input, ids)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}
