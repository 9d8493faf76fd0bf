package sparql

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// A single RDF term in a result binding.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// One row of a SELECT result. Variables left unbound by OPTIONAL
// clauses are absent from the map.
type Binding map[string]Term

// Returns the value bound to name, and whether it was bound at all.
func (b Binding) Value(name string) (string, bool) {
	t, ok := b[name]
	if !ok {
		return "", false
	}
	return t.Value, true
}

// SPARQL 1.1 Query Results JSON Format.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// Decodes a SELECT result document.
func DecodeResults(body []byte) (*Results, error) {
	var res Results
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(err, "decoding sparql results")
	}
	if res.Head.Vars == nil && res.Boolean == nil {
		return nil, errors.New("decoding sparql results: missing head")
	}
	if res.Results.Bindings == nil {
		res.Results.Bindings = []Binding{}
	}
	return &res, nil
}

// Decodes an ASK result document.
func DecodeBoolean(body []byte) (bool, error) {
	var res Results
	if err := json.Unmarshal(body, &res); err != nil {
		return false, errors.Wrap(err, "decoding sparql boolean")
	}
	if res.Boolean == nil {
		return false, errors.New("decoding sparql boolean: missing boolean")
	}
	return *res.Boolean, nil
}
