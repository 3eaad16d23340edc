package appid

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/animeverse/animeverse/internal/assets/appidentity"
)

// Fallbacks used when no identity can be resolved at all.
const (
	FallbackBinaryName = "animeverse"
	FallbackEnvPrefix  = "ANIMEVERSE_"
)

func init() {
	// Explicit identity (FULMEN_APP_IDENTITY_PATH or a checked-out
	// .fulmen/app.yaml) still wins over the embedded copy.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// BinaryName returns the identity binary name or FallbackBinaryName.
func BinaryName(ctx context.Context) string {
	identity, err := Get(ctx)
	if err != nil || identity == nil || strings.TrimSpace(identity.BinaryName) == "" {
		return FallbackBinaryName
	}
	return identity.BinaryName
}
