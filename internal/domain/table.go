package domain

// TableDefinition describes how one destination table is named and loaded.
// Definitions are keyed by schema key in the connector's table config file.
type TableDefinition struct {
	// DestinationTableTemplate is rendered against the run's parameters,
	// e.g. "events_{customer_id}${run_yyyymmdd}".
	DestinationTableTemplate string
	Description              string
	TableDefs                []TableDef
}

// TableDef is one source-format definition for a destination table.
type TableDef struct {
	Format        string // JSON or CSV
	MaxBadRecords int
	Encoding      string
	Schema        RecordSchema
}

// RecordSchema is the field layout of a staged file.
type RecordSchema struct {
	Fields []FieldSchema
}

// FieldSchema describes a single column, possibly nested.
type FieldSchema struct {
	Name        string
	Type        string
	Description string
	Repeated    bool
	Fields      []FieldSchema
}
