package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductDesk/internal/catalog"
)

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", db}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_Workflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "products.db")

	out, err := run(t, db, "add", "--title", "Pen", "--price", "2", "--tax", "0.4", "--category", "Office", "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Pen")
	assert.Contains(t, out, "2.4")

	_, err = run(t, db, "add", "--title", "Lamp", "--price", "abc", "--category", "Home")
	require.NoError(t, err)

	out, err = run(t, db, "list", "lam")
	require.NoError(t, err)
	assert.Contains(t, out, "Lamp")
	assert.NotContains(t, out, "Pen")

	out, err = run(t, db, "mode", "category")
	require.NoError(t, err)
	assert.Equal(t, "category\n", out)

	out, err = run(t, db, "list", "OFF")
	require.NoError(t, err)
	assert.Contains(t, out, "Pen")
	assert.NotContains(t, out, "Lamp")

	out, err = run(t, db, "update", "1", "--title", "Red Pen")
	require.NoError(t, err)
	assert.Contains(t, out, "Red Pen")

	_, err = run(t, db, "get", "1")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	out, err = run(t, db, "get", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Office", "untouched fields are kept on update")

	_, err = run(t, db, "delete", "2")
	require.NoError(t, err)
	_, err = run(t, db, "get", "2")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	out, err = run(t, db, "mode")
	require.NoError(t, err)
	assert.Equal(t, "category\n", out)
}

func TestCLI_NamespacesAreSeparate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "products.db")

	_, err := run(t, db, "--namespace", "shop-a", "add", "--title", "Pen", "--price", "1")
	require.NoError(t, err)

	out, err := run(t, db, "--namespace", "shop-b", "list")
	require.NoError(t, err)
	assert.Equal(t, "no products\n", out)
}

func TestCLI_Total(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "unused.db"), "total", "--price", "10", "--tax", "2", "--ads", "1", "--reduction", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Total : 10")

	out, err = run(t, filepath.Join(t.TempDir(), "unused.db"), "total", "--tax", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Total :")
	assert.NotContains(t, out, "2")
}

func TestCLI_Token(t *testing.T) {
	secret := strings.Repeat("s", 32)

	out, err := run(t, filepath.Join(t.TempDir(), "unused.db"), "token", "--secret", secret, "--subject", "ops")
	require.NoError(t, err)

	claims, err := catalog.NewTokenMaker(secret).Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, catalog.RoleEditor, claims.Role)

	_, err = run(t, filepath.Join(t.TempDir(), "unused.db"), "token", "--secret", "short")
	assert.Error(t, err)
}

func TestCLI_BadArgs(t *testing.T) {
	db := filepath.Join(t.TempDir(), "products.db")

	_, err := run(t, db, "delete", "abc")
	assert.Error(t, err)

	_, err = run(t, db, "mode", "price")
	assert.ErrorIs(t, err, catalog.ErrBadSearchMode)
}

func TestCLI_AddCountIsCapped(t *testing.T) {
	db := filepath.Join(t.TempDir(), "products.db")

	_, err := run(t, db, "add", "--title", "Pen", "-n", "2000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the limit")

	out, err := run(t, db, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Pen")

	_, err = run(t, db, "add", "--title", "Pen", "-n", strconv.Itoa(catalog.MaxAddCount+1))
	assert.Error(t, err)
}

func TestCLI_ClosesStoreWhenCommandFails(t *testing.T) {
	a := &app{}
	cmd := a.rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "products.db"), "get", "99"})

	err := cmd.Execute()
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.NotNil(t, a.backend)
	assert.Error(t, a.backend.Ping(context.Background()), "backend should be closed")
}
