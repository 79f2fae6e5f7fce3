package main

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"muni-form-assist/amount"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// run executes the command line args with stdin and returns stdout
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("FORMASSIST_TIMEZONE", "UTC")

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	out, err := run(t, "", "normalize", "1.234,5", "10", "")
	require.NoError(t, err)
	assert.Equal(t, "1234.50\t1.234,50\n10.00\t10,00\n\t\n", out)

	out, err = run(t, "$ 1.500\n12,5\n", "normalize")
	require.NoError(t, err)
	assert.Equal(t, "1500.00\t1.500,00\n12.50\t12,50\n", out)
}

func TestDisplayCommand(t *testing.T) {
	out, err := run(t, "", "display", "1234.56", "-12,5")
	require.NoError(t, err)
	assert.Equal(t, "1.234,56\n-12,50\n", out)

	out, err = run(t, "", "display", "--places", "1", "1234.56")
	require.NoError(t, err)
	assert.Equal(t, "1.234,6\n", out)

	_, err = run(t, "", "display", "abc")
	assert.Error(t, err)

	out, err = run(t, "", "display", "--places", "6", "1234.5")
	require.NoError(t, err)
	assert.Equal(t, "1.234,500000\n", out)

	for _, places := range []string{"-1", "7", "4294967295"} {
		out, err = run(t, "", "display", "--places="+places, "1234.56")
		assert.ErrorIs(t, err, amount.ErrInvalidPlaces, "places %s", places)
		assert.Empty(t, out)
	}
}

func TestRangeCommand(t *testing.T) {
	out, err := run(t, "", "range", "todo")
	require.NoError(t, err)
	assert.Equal(t, "todo\t\t\n", out)

	out, err = run(t, "", "range", "--desde", "2020-01-01", "--hasta", "2020-01-05")
	require.NoError(t, err)
	assert.Equal(t, "personalizado\n", out)

	out, err = run(t, "", "range")
	require.NoError(t, err)
	assert.Equal(t, "todo\n", out)

	_, err = run(t, "", "range", "siglo")
	assert.Error(t, err)

	_, err = run(t, "", "range", "--desde", "01/01/2020")
	assert.Error(t, err)
}

func TestSuggestCommand(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		_, _ = rw.Write([]byte(`{"results": [{"id": 1, "nombre": "Juan", "apellido": "Perez", "dni": "30111222"}]}`))
	}))
	defer upstream.Close()

	t.Setenv("FORMASSIST_UPSTREAM_BASE_URL", upstream.URL)
	t.Setenv("FORMASSIST_LOOKUP_DEBOUNCE", "1ms")

	out, err := run(t, "pe\nper\n", "suggest", "persona")

	require.NoError(t, err)
	assert.Contains(t, out, "per:\n  1\tPerez, Juan (30111222)\n")

	out, err = run(t, "", "suggest", "persona")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "", "suggest", "barrio")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("FORMASSIST_LOG_LEVEL", "chatty")

	_, err := run(t, "", "normalize", "1")

	assert.Error(t, err)
}
