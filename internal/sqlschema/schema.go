// Package sqlschema validates and summarizes the SQL schema a generated
// project is initialized with, using the PostgreSQL parser itself.
package sqlschema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"

	generr "shireesh.com/stackgen/internal/errors"
)

// Kind classifies a statement by what it does to the schema.
type Kind string

const (
	KindCreateTable     Kind = "create table"
	KindAlterTable      Kind = "alter table"
	KindCreateIndex     Kind = "create index"
	KindDrop            Kind = "drop"
	KindCreateExtension Kind = "create extension"
	KindOther           Kind = "statement"
)

// Statement is one parsed top-level SQL statement.
type Statement struct {
	SQL    string
	Kind   Kind
	Object string // schema-qualified table, index or extension name when known
}

type Schema struct {
	Statements []Statement
}

// parseResult mirrors the top of pg_query's JSON parse tree.
type parseResult struct {
	Version int `json:"version"`
	Stmts   []struct {
		Stmt map[string]json.RawMessage `json:"stmt"`
	} `json:"stmts"`
}

// Parse splits src into statements and parses each one. Any statement
// PostgreSQL would reject makes the whole schema invalid.
func Parse(src string) (*Schema, error) {
	// the scanner split survives syntax errors so the parse below can name the bad statement
	stmts, err := pgquery.SplitWithScanner(src, true)
	if err != nil {
		return nil, generr.Wrap(generr.ESchemaInvalid, "split schema", err)
	}

	s := &Schema{}
	for i, sql := range stmts {
		sql = strings.TrimSpace(sql)
		if sql == "" {
			continue
		}
		parsedJSON, err := pgquery.ParseToJSON(sql)
		if err != nil {
			return nil, generr.WrapWithDetails(generr.ESchemaInvalid, fmt.Sprintf("statement %d does not parse", i+1), err, map[string]string{
				"statement": firstLine(sql),
			})
		}
		var pr parseResult
		if err := json.Unmarshal([]byte(parsedJSON), &pr); err != nil {
			return nil, generr.Wrap(generr.ESchemaInvalid, "decode parse tree", err)
		}
		if len(pr.Stmts) == 0 {
			// comments only
			continue
		}
		st := Statement{SQL: sql, Kind: KindOther}
		for _, node := range pr.Stmts {
			for kind, payload := range node.Stmt {
				st.Kind, st.Object = classify(kind, payload)
			}
		}
		s.Statements = append(s.Statements, st)
	}

	if len(s.Statements) == 0 {
		return nil, generr.New(generr.ESchemaInvalid, "schema contains no statements")
	}
	return s, nil
}

func classify(kind string, payload json.RawMessage) (Kind, string) {
	switch kind {
	case "CreateStmt":
		var node struct {
			Relation json.RawMessage `json:"relation"`
		}
		_ = json.Unmarshal(payload, &node)
		return KindCreateTable, qualified(parseRangeVar(node.Relation))
	case "AlterTableStmt":
		var node struct {
			Relation json.RawMessage `json:"relation"`
		}
		_ = json.Unmarshal(payload, &node)
		return KindAlterTable, qualified(parseRangeVar(node.Relation))
	case "IndexStmt":
		var node struct {
			Idxname  string          `json:"idxname"`
			Relation json.RawMessage `json:"relation"`
		}
		_ = json.Unmarshal(payload, &node)
		table := qualified(parseRangeVar(node.Relation))
		if node.Idxname == "" {
			return KindCreateIndex, table
		}
		return KindCreateIndex, node.Idxname + " on " + table
	case "DropStmt":
		return KindDrop, ""
	case "CreateExtensionStmt":
		var node struct {
			Extname string `json:"extname"`
		}
		_ = json.Unmarshal(payload, &node)
		return KindCreateExtension, node.Extname
	}
	return KindOther, ""
}

// parseRangeVar reads schemaname and relname from a RangeVar node or flat object.
func parseRangeVar(raw json.RawMessage) (schema, name string) {
	if len(raw) == 0 {
		return "", ""
	}
	// case 1: flat
	var flat struct {
		Schemaname string `json:"schemaname"`
		Relname    string `json:"relname"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Relname != "" {
		return flat.Schemaname, flat.Relname
	}
	// case 2: RangeVar wrapped
	var wrapped struct {
		RangeVar struct {
			Schemaname string `json:"schemaname"`
			Relname    string `json:"relname"`
		} `json:"RangeVar"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.RangeVar.Relname != "" {
		return wrapped.RangeVar.Schemaname, wrapped.RangeVar.Relname
	}
	return "", ""
}

func qualified(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

func firstLine(sql string) string {
	line, _, _ := strings.Cut(sql, "\n")
	return line
}

// Tables lists the tables the schema creates, sorted.
func (s *Schema) Tables() []string {
	var out []string
	for _, st := range s.Statements {
		if st.Kind == KindCreateTable && st.Object != "" {
			out = append(out, st.Object)
		}
	}
	sort.Strings(out)
	return out
}

// Count returns how many statements of kind the schema holds.
func (s *Schema) Count(kind Kind) int {
	n := 0
	for _, st := range s.Statements {
		if st.Kind == kind {
			n++
		}
	}
	return n
}

// Summary is a one-line description for progress logs.
func (s *Schema) Summary() string {
	tables := s.Tables()
	summary := fmt.Sprintf("%d statements, %d tables", len(s.Statements), len(tables))
	if len(tables) > 0 {
		summary += " (" + strings.Join(tables, ", ") + ")"
	}
	if n := s.Count(KindCreateIndex); n > 0 {
		summary += fmt.Sprintf(", %d indexes", n)
	}
	return summary
}

// Render returns the normalized script: one statement per block, each
// terminated by a semicolon.
func (s *Schema) Render() string {
	var b strings.Builder
	for i, st := range s.Statements {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimRight(st.SQL, "; \t\n"))
		b.WriteString(";\n")
	}
	return b.String()
}
