// Package memstore is an in-memory backend implementing every interface of
// the remote package.
//
// It backs the command line tool when no live backend is configured and is
// the fixture backend of the package tests. Entities, relations and
// attribute tables can be loaded from a YAML fixture:
//
//	entities:
//	  - id: {entityType: ASSET, id: building-1}
//	    name: Building 1
//	    type: building
//	relations:
//	  - from: {entityType: ASSET, id: building-1}
//	    to: {entityType: DEVICE, id: thermostat-1}
//	    type: Contains
//	attributes:
//	  - entity: {entityType: DEVICE, id: thermostat-1}
//	    scope: SHARED_SCOPE
//	    values:
//	      - {key: target, value: 21, lastUpdateTs: 1700000000000}
//
// Every remote call is counted per operation so tests can assert how many
// requests a resolution issued. Hooks allow injecting latency and failures.
package memstore
