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

// Package tablejson reads and writes the JSON table payload consumed by grid
// front ends: a schema object plus an array of flat records. Decoding
// synthesizes the row-id column that disambiguates duplicate index values;
// encoding maps non-finite floats onto their wire tokens.
package tablejson

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/magpierre/gridmodel/datagrid"
)

// Wire tokens for float values JSON cannot carry.
const (
	TokenNaN         = "$NaN$"
	TokenInfinity    = "$Infinity$"
	TokenNegInfinity = "$NegInfinity$"
	TokenNaT         = "$NaT$"
)

// DefaultRowIDField is the name given to the synthesized row-id column when
// the payload does not carry one. If a payload column already uses the name,
// a random one is generated instead.
const DefaultRowIDField = "_rowid"

// Payload is the wire shape of a full table.
type Payload struct {
	Schema datagrid.Schema   `json:"schema"`
	Data   []datagrid.Record `json:"data"`
}

// Decode parses a table payload into a schema and data source. Duplicate
// column names are rejected. When the payload carries no row-id column, one
// is appended with ordinal values and added to the primary key.
func Decode(data []byte) (*datagrid.Schema, *datagrid.DataSource, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, fmt.Errorf("decoding table payload: %w", err)
	}

	schema := payload.Schema
	seen := make(map[string]struct{}, len(schema.Fields))
	for _, f := range schema.Fields {
		if _, dup := seen[f.Name]; dup {
			return nil, nil, fmt.Errorf("%w: %q", datagrid.ErrDuplicateColumn, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	records := make([]datagrid.Record, len(payload.Data))
	for i, rec := range payload.Data {
		out := make(datagrid.Record, len(rec))
		for k, v := range rec {
			out[k] = decodeValue(v)
		}
		records[i] = out
	}

	if schema.RowIDField == "" {
		name := DefaultRowIDField
		if _, taken := seen[name]; taken {
			name = "_rowid_" + uuid.NewString()
		}
		schema.RowIDField = name
		schema.Fields = append(schema.Fields, datagrid.Field{
			Name: name,
			Type: datagrid.TypeInteger,
		})
		schema.PrimaryKey = append(schema.PrimaryKey, name)
		for i := range records {
			records[i][name] = i
		}
	}

	return &schema, datagrid.NewDataSource(records), nil
}

// Encode renders a schema and record sequence back into the wire shape.
func Encode(schema *datagrid.Schema, records []datagrid.Record) ([]byte, error) {
	data := make([]datagrid.Record, len(records))
	for i, rec := range records {
		out := make(datagrid.Record, len(rec))
		for k, v := range rec {
			out[k] = encodeValue(v)
		}
		data[i] = out
	}
	return json.Marshal(Payload{Schema: *schema, Data: data})
}

// decodeValue folds wire tokens back into their float forms.
func decodeValue(v any) any {
	switch v {
	case TokenNaN, TokenNaT:
		return math.NaN()
	case TokenInfinity:
		return math.Inf(1)
	case TokenNegInfinity:
		return math.Inf(-1)
	default:
		return v
	}
}

// encodeValue maps non-finite floats onto wire tokens.
func encodeValue(v any) any {
	f, ok := v.(float64)
	if !ok {
		if f32, ok32 := v.(float32); ok32 {
			f = float64(f32)
		} else {
			return v
		}
	}
	switch {
	case math.IsNaN(f):
		return TokenNaN
	case math.IsInf(f, 1):
		return TokenInfinity
	case math.IsInf(f, -1):
		return TokenNegInfinity
	default:
		return v
	}
}
