// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package catalog

import (
	"io"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Document is a human-readable dump of selected catalog tables, keyed by
// category name.
type Document map[string][]Descriptor

// Export builds a Document of the given categories (all when empty). A
// non-empty pattern keeps only entries whose name matches it.
func (c *Catalog) Export(cats []Category, pattern string) (Document, error) {
	if len(cats) == 0 {
		cats = Categories()
	}
	if pattern == "" {
		pattern = "*"
	}
	doc := make(Document, len(cats))
	for _, cat := range cats {
		ds, err := c.Match(cat, pattern)
		if err != nil {
			return nil, err
		}
		if len(ds) > 0 {
			doc[cat.String()] = ds
		}
	}
	return doc, nil
}

// WriteYAML encodes the document as YAML.
func (d Document) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]Descriptor(d)); err != nil {
		return oops.With("operation", "encode_catalog").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return oops.With("operation", "encode_catalog").Wrap(err)
	}
	return nil
}
