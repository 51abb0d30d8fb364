// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package agentrpc

import (
	"encoding/json"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
)

// CodeInvalidRequest marks a request payload that fails strict validation.
const CodeInvalidRequest = "INVALID_REQUEST"

// SchemaID returns the $id of the generated protocol schema.
func SchemaID() string {
	return "https://holomush.dev/schemas/bwbridge-agent.schema.json"
}

// GenerateSchema generates the JSON Schema of the agent protocol: the
// handshake, every request and notification payload, and the reply.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Protocol{})
	schema.ID = jsonschema.ID(SchemaID())
	schema.Title = "bwbridge agent protocol"
	schema.Description = "Payloads exchanged between the bridge and an attached agent"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Wrapf(err, "marshal schema")
	}
	return data, nil
}

// requestTypes maps each request type to its payload type, taken from the
// json tags of Requests.
var requestTypes = func() map[string]reflect.Type {
	t := reflect.TypeFor[Requests]()
	out := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		out[f.Tag.Get("json")] = f.Type
	}
	return out
}()

// validator checks request payloads against per-request schemas, compiling
// each on first use.
type validator struct {
	mu       sync.Mutex
	compiled map[string]*jschema.Schema
}

func newValidator() *validator {
	return &validator{compiled: make(map[string]*jschema.Schema)}
}

func (v *validator) schema(reqType string) (*jschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sch, ok := v.compiled[reqType]; ok {
		return sch, nil
	}

	t, ok := requestTypes[reqType]
	if !ok {
		return nil, oops.Code(CodeUnknownRequest).With("request", reqType).Errorf("unknown request")
	}
	r := jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	doc, err := json.Marshal(r.ReflectFromType(t))
	if err != nil {
		return nil, oops.With("request", reqType).Wrapf(err, "marshal request schema")
	}
	var schemaData any
	if err := json.Unmarshal(doc, &schemaData); err != nil {
		return nil, oops.With("request", reqType).Wrapf(err, "parse request schema")
	}

	url := reqType + ".json"
	c := jschema.NewCompiler()
	if err := c.AddResource(url, schemaData); err != nil {
		return nil, oops.With("request", reqType).Wrapf(err, "add schema resource")
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, oops.With("request", reqType).Wrapf(err, "compile request schema")
	}
	v.compiled[reqType] = sch
	return sch, nil
}

// Validate checks one request payload. An absent payload is validated as an
// empty object.
func (v *validator) Validate(reqType string, data json.RawMessage) error {
	sch, err := v.schema(reqType)
	if err != nil {
		return err
	}
	var doc any = map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return oops.Code(CodeInvalidRequest).With("request", reqType).Wrapf(err, "payload is not JSON")
		}
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code(CodeInvalidRequest).With("request", reqType).Wrapf(err, "schema validation failed")
	}
	return nil
}
