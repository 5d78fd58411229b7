package store

import (
	"github.com/orbit-go/orbitdb/pkg/interfaces"
	"github.com/orbit-go/orbitdb/pkg/registry"
)

// RegisterDefaults registers every built-in store type, and its
// aliases (spec §4.9: "feed, log/eventlog, keyvalue/kvstore, counter,
// docs/docstore"), on reg.
func RegisterDefaults(reg *registry.Registry) error {
	aliases := map[string]interfaces.Constructor{
		TypeFeed:     interfaces.Constructor(NewFeedConstructor),
		TypeEventLog: interfaces.Constructor(NewEventLogConstructor),
		"log":        interfaces.Constructor(NewEventLogConstructor),
		TypeKeyValue: interfaces.Constructor(NewKeyValueConstructor),
		"kvstore":    interfaces.Constructor(NewKeyValueConstructor),
		TypeCounter:  interfaces.Constructor(NewCounterConstructor),
		TypeDocStore: interfaces.Constructor(NewDocStoreConstructor),
		"docs":       interfaces.Constructor(NewDocStoreConstructor),
	}
	for tag, ctor := range aliases {
		if err := reg.Register(tag, ctor); err != nil {
			return err
		}
	}
	return nil
}
