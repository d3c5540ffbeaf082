// Package docbind binds typed entity trees to hierarchical documents.
//
// A [Descriptor] declares an element type: attributes, and either a single
// value or an ordered list of fields. Fields are primitive values held in a
// [Slot], nested elements, or groups of elements sharing one type.
// [Compile] validates a descriptor once and returns a [Schema]; everything
// else works from compiled schemas.
//
// [Build] makes a blank tree from a schema. [DecodeNode] and [EncodeNode]
// convert trees to and from a generic [Node], which the format packages
// (xmldoc, yamldoc, cbordoc) read and write.
//
// An [Entity] is a root element with a lifecycle:
//
//	e := docbind.NewEntity(schema, backend)
//	err := e.InitializeExisting(ctx, id)
//	...
//	err = e.Root().Set("title", "new title") // Unchanged -> Changed
//	err = e.Commit(ctx)                      // Changed -> Unchanged
//
// A [Backend] stores entities by primary key; see the filestore and sqlstore
// packages. A [Cache] keeps at most one live entity per key.
//
// # Errors
//
// Errors returned by this package are *[Error] values carrying the schema
// name and element path. Match causes with errors.Is against the exported
// sentinels; [ErrNothingToCommit] and [ErrAlreadyRemoved] also match
// [ErrInvalidStateTransition].
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use.
package docbind
