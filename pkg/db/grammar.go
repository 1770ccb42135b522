package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
)

// breakdownKeys are morphological breakdown fields. They describe a single
// surface form, not the lemma, and are never stored.
var breakdownKeys = map[string]bool{
	"root":        true,
	"prefix":      true,
	"prefixes":    true,
	"suffix":      true,
	"suffixes":    true,
	"derivations": true,
	"inflections": true,
	"forms":       true,
	"form_count":  true,
}

// Grammar holds grammatical attributes of a lemma (gender, verb class...).
type Grammar map[string]string

// Merge returns a copy of g with empty or missing keys filled from src.
// Existing values are never overwritten.
func (g Grammar) Merge(src map[string]string) Grammar {
	out := make(Grammar, len(g)+len(src))
	for k, v := range g {
		if !breakdownKeys[k] {
			out[k] = v
		}
	}
	for k, v := range src {
		if v == "" || breakdownKeys[k] {
			continue
		}
		if out[k] == "" {
			out[k] = v
		}
	}
	return out
}

// Equal reports whether g and o hold the same entries.
func (g Grammar) Equal(o Grammar) bool {
	return maps.Equal(g, o)
}

// Value implements driver.Valuer.
func (g Grammar) Value() (driver.Value, error) {
	if len(g) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(g))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (g *Grammar) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*g = Grammar{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("grammar: unsupported type %T", src)
	}
	m := map[string]string{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("grammar: %w", err)
		}
	}
	*g = m
	return nil
}
