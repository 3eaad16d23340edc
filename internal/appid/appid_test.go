package appid

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/stretchr/testify/require"

	appidentityassets "github.com/animeverse/animeverse/internal/assets/appidentity"
)

func prepareIdentityForTest(t *testing.T) {
	t.Helper()

	// gofulmen caches identity per process and keeps the embedded
	// registration globally; Reset clears both.
	appidentity.Reset()
	require.NoError(t, appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML))
	t.Cleanup(func() { appidentity.Reset() })
}

func chdirOutsideRepo(t *testing.T) {
	t.Helper()

	oldWD, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	require.NoError(t, os.Chdir(t.TempDir()))
}

func TestGet_EmbeddedIdentityFallbackOutsideRepo(t *testing.T) {
	prepareIdentityForTest(t)
	t.Setenv(appidentity.EnvIdentityPath, "")
	chdirOutsideRepo(t)

	identity, err := Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "animeverse", identity.BinaryName)
	require.Equal(t, "ANIMEVERSE_", identity.EnvPrefix)
	require.Equal(t, "animeverse", identity.ConfigName)
}

func TestGet_EnvVarRemainsAuthoritative(t *testing.T) {
	prepareIdentityForTest(t)

	missing := filepath.Join(t.TempDir(), "missing-app.yaml")
	t.Setenv(appidentity.EnvIdentityPath, missing)

	_, err := Get(context.Background())
	require.Error(t, err)

	var notFound *appidentity.NotFoundError
	require.True(t, errors.As(err, &notFound), "expected NotFoundError, got %T: %v", err, err)
}

func TestBinaryNameFallsBackWhenIdentityMissing(t *testing.T) {
	prepareIdentityForTest(t)
	t.Setenv(appidentity.EnvIdentityPath, filepath.Join(t.TempDir(), "missing-app.yaml"))

	require.Equal(t, FallbackBinaryName, BinaryName(context.Background()))
}
