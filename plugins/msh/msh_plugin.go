// Build with: go build -buildmode=plugin -o msh.so ./plugins/msh
package main

import (
	"github.com/charmbracelet/log"

	"sensoralert/mesh"
	"sensoralert/shared"
)

// The plugin symbol carries no configuration, so it listens on the public
// LongFast channel only.
func defaultKeys() map[string][]byte {
	key, err := mesh.ExpandKey(mesh.DefaultKey)
	if err != nil {
		log.Fatalf("Invalid default channel key: %s", err)
	}
	return map[string][]byte{"LongFast": key}
}

var Handler shared.FeedHandler = mesh.FeedHandler{Keys: defaultKeys()}
