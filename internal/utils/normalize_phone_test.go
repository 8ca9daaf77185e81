package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	require.Equal(t, "+15552013344", NormalizePhone("(555) 201-3344"))
	require.Equal(t, "+15552013344", NormalizePhone("1-555-201-3344"))
	require.Equal(t, "+15552013344", NormalizePhone("+1 555 201 3344"))
	require.Equal(t, "+445550112233", NormalizePhone("+44 5550 112233"))
	require.Equal(t, "", NormalizePhone("ext. only"))
	require.Equal(t, "", NormalizePhone(""))
}
