package main

import (
	"fmt"
	"plugin"

	"sensoralert/mesh"
	"sensoralert/rtl433"
	"sensoralert/shared"
)

// loadFeedHandler returns the built-in handler called p.Name, or the Handler
// symbol of the plugin at p.Path.
func loadFeedHandler(p shared.PluginConfig, keys map[string][]byte) (shared.FeedHandler, error) {
	if p.Path == "" {
		switch p.Name {
		case "rtl433":
			return rtl433.Handler{}, nil
		case "msh", "mesh":
			return mesh.FeedHandler{Keys: keys}, nil
		}
		return nil, fmt.Errorf("%w: no built-in handler %q", shared.ErrFeedHandler, p.Name)
	}

	plug, err := plugin.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin: %w", err)
	}

	sym, err := plug.Lookup("Handler")
	if err != nil {
		return nil, fmt.Errorf("failed to lookup Handler symbol: %w", err)
	}

	handler, ok := sym.(*shared.FeedHandler)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected type %T from plugin %s", shared.ErrFeedHandler, sym, p.Path)
	}
	return *handler, nil
}
