package tracking

import "dts-connector/internal/domain"

// Wire types for the tracking service's JSON surface.

type transferMessage struct {
	MessageTime string `json:"messageTime"`
	Severity    string `json:"severity"`
	MessageText string `json:"messageText"`
}

type importedDataInfo struct {
	DestinationTableID          string     `json:"destinationTableId"`
	DestinationTableDescription string     `json:"destinationTableDescription,omitempty"`
	TableDefs                   []tableDef `json:"tableDefs"`
}

type tableDef struct {
	Format        string       `json:"format"`
	MaxBadRecords int          `json:"maxBadRecords"`
	Encoding      string       `json:"encoding,omitempty"`
	Schema        recordSchema `json:"schema"`
	SourceURIs    []string     `json:"sourceUris"`
}

type recordSchema struct {
	Fields []fieldSchema `json:"fields"`
}

type fieldSchema struct {
	FieldName   string        `json:"fieldName"`
	Type        string        `json:"type"`
	Description string        `json:"description,omitempty"`
	IsRepeated  bool          `json:"isRepeated,omitempty"`
	Fields      []fieldSchema `json:"fields,omitempty"`
}

// importedData converts staged artifacts into the load request payload.
func importedData(artifacts []domain.TableArtifact) []importedDataInfo {
	out := make([]importedDataInfo, len(artifacts))
	for i, a := range artifacts {
		idi := importedDataInfo{
			DestinationTableID:          a.DestinationName,
			DestinationTableDescription: a.Definition.Description,
		}
		for _, td := range a.Definition.TableDefs {
			idi.TableDefs = append(idi.TableDefs, tableDef{
				Format:        td.Format,
				MaxBadRecords: td.MaxBadRecords,
				Encoding:      td.Encoding,
				Schema:        toRecordSchema(td.Schema),
				SourceURIs:    a.SourceLocations,
			})
		}
		out[i] = idi
	}
	return out
}

func toRecordSchema(s domain.RecordSchema) recordSchema {
	return recordSchema{Fields: toFieldSchemas(s.Fields)}
}

func toFieldSchemas(fields []domain.FieldSchema) []fieldSchema {
	out := make([]fieldSchema, len(fields))
	for i, f := range fields {
		out[i] = fieldSchema{
			FieldName:   f.Name,
			Type:        f.Type,
			Description: f.Description,
			IsRepeated:  f.Repeated,
			Fields:      toFieldSchemas(f.Fields),
		}
	}
	return out
}
