package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dts-connector/internal/domain"
)

// Wire types for the table-definition YAML, keyed by schema key:
//
//	date_greg:
//	  destinationTableIdTemplate: date_greg${run_yyyymmdd}
//	  destinationTableDescription: Gregorian dates
//	  tableDefs:
//	    - format: JSON
//	      maxBadRecords: 0
//	      encoding: UTF8
//	      schema:
//	        fields:
//	          - fieldName: date
//	            type: DATE
type tableConfigEntry struct {
	DestinationTableIDTemplate  string         `yaml:"destinationTableIdTemplate"`
	DestinationTableDescription string         `yaml:"destinationTableDescription"`
	TableDefs                   []tableDefYAML `yaml:"tableDefs"`
}

type tableDefYAML struct {
	Format        string           `yaml:"format"`
	MaxBadRecords int              `yaml:"maxBadRecords"`
	Encoding      string           `yaml:"encoding"`
	Schema        recordSchemaYAML `yaml:"schema"`
}

type recordSchemaYAML struct {
	Fields []fieldSchemaYAML `yaml:"fields"`
}

type fieldSchemaYAML struct {
	FieldName   string            `yaml:"fieldName"`
	Type        string            `yaml:"type"`
	Description string            `yaml:"description"`
	IsRepeated  bool              `yaml:"isRepeated"`
	Fields      []fieldSchemaYAML `yaml:"fields"`
}

// LoadTableConfig reads and validates the table-definition file.
func LoadTableConfig(path string) (map[string]domain.TableDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table config: %w", err)
	}
	return ParseTableConfig(data)
}

// ParseTableConfig parses table definitions from YAML.
func ParseTableConfig(data []byte) (map[string]domain.TableDefinition, error) {
	var raw map[string]tableConfigEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse table config: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("table config defines no tables")
	}

	tables := make(map[string]domain.TableDefinition, len(raw))
	for key, entry := range raw {
		if entry.DestinationTableIDTemplate == "" {
			return nil, fmt.Errorf("table %q: destinationTableIdTemplate is required", key)
		}
		if len(entry.TableDefs) == 0 {
			return nil, fmt.Errorf("table %q: at least one tableDef is required", key)
		}
		def := domain.TableDefinition{
			DestinationTableTemplate: entry.DestinationTableIDTemplate,
			Description:              entry.DestinationTableDescription,
		}
		for i, td := range entry.TableDefs {
			if len(td.Schema.Fields) == 0 {
				return nil, fmt.Errorf("table %q: tableDef %d has no schema fields", key, i)
			}
			def.TableDefs = append(def.TableDefs, domain.TableDef{
				Format:        td.Format,
				MaxBadRecords: td.MaxBadRecords,
				Encoding:      td.Encoding,
				Schema:        domain.RecordSchema{Fields: toDomainFields(td.Schema.Fields)},
			})
		}
		tables[key] = def
	}
	return tables, nil
}

func toDomainFields(fields []fieldSchemaYAML) []domain.FieldSchema {
	out := make([]domain.FieldSchema, len(fields))
	for i, f := range fields {
		out[i] = domain.FieldSchema{
			Name:        f.FieldName,
			Type:        f.Type,
			Description: f.Description,
			Repeated:    f.IsRepeated,
			Fields:      toDomainFields(f.Fields),
		}
	}
	return out
}
