// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datagrid

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Field describes one named, typed column.
type Field struct {
	// Name is the record key for this column.
	Name string

	// Type is the declared column type.
	Type ColumnType

	// DisplayPath holds the header labels for this column, one entry per
	// header row. Empty means the column is labeled by its Name alone.
	DisplayPath []string
}

// Label returns the header label for the given header row, or nil when the
// column has no label at that depth.
func (f Field) Label(row int) any {
	if len(f.DisplayPath) == 0 {
		if row == 0 {
			return f.Name
		}
		return nil
	}
	if row < 0 || row >= len(f.DisplayPath) {
		return nil
	}
	return f.DisplayPath[row]
}

// Schema describes the columns of a dataset: their order, their types, which
// of them form the primary key, and which string values read back as null.
type Schema struct {
	// Fields lists the columns in declaration order.
	Fields []Field

	// PrimaryKey names the fields rendered as row headers.
	PrimaryKey []string

	// RowIDField names the synthetic column that disambiguates duplicate
	// primary-key values. It is excluded from display entirely.
	RowIDField string

	// MissingValues lists string values that read back as null.
	MissingValues []string
}

// FieldByName returns the field with the given name.
func (s *Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// isRowID reports whether the field is the synthetic row-id column.
func (s *Schema) isRowID(f Field) bool {
	if s.RowIDField == "" {
		return false
	}
	if len(f.DisplayPath) > 0 {
		return f.DisplayPath[0] == s.RowIDField
	}
	return f.Name == s.RowIDField
}

// isPrimaryKey reports whether the field name is part of the primary key.
func (s *Schema) isPrimaryKey(name string) bool {
	for _, k := range s.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// Split partitions the displayed fields into header fields (primary-key
// columns) and body fields (everything else), preserving declaration order
// within each group. The synthetic row-id field appears in neither group.
// Primary-key names that match no field are ignored.
func (s *Schema) Split() (header, body []Field) {
	for _, f := range s.Fields {
		if s.isRowID(f) {
			continue
		}
		if s.isPrimaryKey(f.Name) {
			header = append(header, f)
		} else {
			body = append(body, f)
		}
	}
	return header, body
}

// TrimmedPrimaryKey returns the primary key names without the synthetic
// row-id column.
func (s *Schema) TrimmedPrimaryKey() []string {
	var key []string
	for _, k := range s.PrimaryKey {
		if k == s.RowIDField {
			continue
		}
		key = append(key, k)
	}
	return key
}

// clone returns a deep copy of the schema.
func (s *Schema) clone() *Schema {
	out := &Schema{
		PrimaryKey:    append([]string(nil), s.PrimaryKey...),
		RowIDField:    s.RowIDField,
		MissingValues: append([]string(nil), s.MissingValues...),
	}
	for _, f := range s.Fields {
		out.Fields = append(out.Fields, Field{
			Name:        f.Name,
			Type:        f.Type,
			DisplayPath: append([]string(nil), f.DisplayPath...),
		})
	}
	return out
}

// missingSet returns the missing-value strings as a lookup set.
func (s *Schema) missingSet() map[string]struct{} {
	if len(s.MissingValues) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(s.MissingValues))
	for _, v := range s.MissingValues {
		set[v] = struct{}{}
	}
	return set
}

type fieldJSON struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	DisplayPath []string `json:"displayPath,omitempty"`
}

type schemaJSON struct {
	Fields        []fieldJSON     `json:"fields"`
	PrimaryKey    json.RawMessage `json:"primaryKey,omitempty"`
	RowIDField    string          `json:"primaryKeyUuid,omitempty"`
	MissingValues []string        `json:"missingValues,omitempty"`
}

// MarshalJSON renders the schema in its wire shape.
func (s Schema) MarshalJSON() ([]byte, error) {
	out := schemaJSON{
		RowIDField:    s.RowIDField,
		MissingValues: s.MissingValues,
	}
	for _, f := range s.Fields {
		out.Fields = append(out.Fields, fieldJSON{
			Name:        f.Name,
			Type:        f.Type.String(),
			DisplayPath: f.DisplayPath,
		})
	}
	if len(s.PrimaryKey) > 0 {
		pk, err := json.Marshal(s.PrimaryKey)
		if err != nil {
			return nil, err
		}
		out.PrimaryKey = pk
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire shape. primaryKey may be a single string or
// an array of strings.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Schema{
		RowIDField:    raw.RowIDField,
		MissingValues: raw.MissingValues,
	}
	for _, f := range raw.Fields {
		s.Fields = append(s.Fields, Field{
			Name:        f.Name,
			Type:        ParseColumnType(f.Type),
			DisplayPath: f.DisplayPath,
		})
	}

	if len(raw.PrimaryKey) > 0 {
		var single string
		if err := json.Unmarshal(raw.PrimaryKey, &single); err == nil {
			s.PrimaryKey = []string{single}
		} else {
			var many []string
			if err := json.Unmarshal(raw.PrimaryKey, &many); err != nil {
				return fmt.Errorf("primaryKey must be a string or an array of strings: %w", err)
			}
			s.PrimaryKey = many
		}
	}

	return nil
}
