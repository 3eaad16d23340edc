package appidentityassets

import _ "embed"

// YAML mirrors `.fulmen/app.yaml` so a standalone animeverse binary can
// resolve its identity without the repository checkout.
//
//go:embed app.yaml
var YAML []byte
