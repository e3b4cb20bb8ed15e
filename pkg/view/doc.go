// Package view defines the Recline preview view types: grid, graph and map.
//
// This package contains:
//   - The Capability contract a host calls for every view type
//   - The three variants (Grid, Graph, Map) and their static data
//   - The configuration schema and the validators it names
//   - An explicit Registry used to install the variants at startup
//
// Nothing here holds per-request state. The graph type table and the base
// schema are built once and never mutated, so every exported operation is
// safe to call from concurrent request handlers.
package view
