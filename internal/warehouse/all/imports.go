// Package all wires every built-in warehouse backend into the factory.
//
// It exists purely for side effects: a blank import runs the init functions
// of the concrete backends, which register themselves with the warehouse
// package. Importing it makes these drivers available to warehouse.Open:
//
//   - "postgres" (merchantetl/internal/warehouse/postgres)
//   - "mssql"    (merchantetl/internal/warehouse/mssql)
//   - "sqlite"   (merchantetl/internal/warehouse/sqlite)
//
// Typical usage in a main package:
//
//	import _ "merchantetl/internal/warehouse/all"
//
// A binary that needs only one backend can blank-import that backend's
// package directly instead.
package all

import (
	_ "merchantetl/internal/warehouse/mssql"
	_ "merchantetl/internal/warehouse/postgres"
	_ "merchantetl/internal/warehouse/sqlite"
)
