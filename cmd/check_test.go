package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	CheckCmd.SetOut(out)
	CheckCmd.SetErr(out)
	CheckCmd.SetArgs(args)
	err := CheckCmd.Execute()
	return out.String(), err
}

func TestCheckPassingFixture(t *testing.T) {
	out, err := execCheck(t, "../frontend/fixture/testdata/vectors.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   pred (suc n): (n : Nat) | (suc n)")
	assert.Contains(t, out, "failed as expected with UnifyConflict")
	assert.NotContains(t, out, "FAIL")
}

func TestCheckFailingFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failing.yaml")
	err := os.WriteFile(path, []byte(`
data:
  - name: Nat
    constructors:
      - name: zero
      - name: suc
        args: "(n : Nat)"
clauses:
  - fn: f
    type: "Nat -> Nat"
    lhs: "zero zero"
`), 0o644)
	require.NoError(t, err)

	out, err := execCheck(t, path)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL f zero zero")
	assert.Contains(t, out, "too many arguments to f")
	assert.Contains(t, err.Error(), "unexpected error")
}

func TestCheckDebugErrors(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, CheckCmd.Flags().Set("debug-errors", "false"))
		ilerr.SetDebugPrinting(false)
	})
	out, err := execCheck(t, "--debug-errors", "../frontend/fixture/testdata/vectors.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, ":(E004) ")
	assert.NotContains(t, out, "\n(E004) ")
}

func TestCheckMissingFile(t *testing.T) {
	_, err := execCheck(t, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read fixture")
}

func TestCheckSource(t *testing.T) {
	out := &bytes.Buffer{}
	err := CheckSource(out, "inline.yaml", []byte(`
data:
  - name: Nat
    constructors:
      - name: zero
      - name: suc
        args: "(n : Nat)"
clauses:
  - fn: pred
    type: "Nat -> Nat"
    lhs: "(suc n)"
`))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ok   pred (suc n): (n : Nat) | (suc n)")

	err = CheckSource(&bytes.Buffer{}, "inline.yaml", []byte("clauses: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse inline.yaml")
}
