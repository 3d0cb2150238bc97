package datatype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringArrayScan(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan(`["bear","human"]`))
	require.Equal(t, StringArray{"bear", "human"}, a)

	require.NoError(t, a.Scan([]byte(`{bear,vehicle}`)))
	require.Equal(t, StringArray{"bear", "vehicle"}, a)

	require.NoError(t, a.Scan(nil))
	require.Nil(t, a)

	require.Error(t, a.Scan(42))
	require.Error(t, a.Scan("bear"))
}

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray{"bear"}.Value()
	require.NoError(t, err)
	require.Equal(t, `["bear"]`, v)
}
