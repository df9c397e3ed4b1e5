// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"crypto/sha1" //nolint:gosec // fingerprint, not a security boundary
	"encoding/base64"
	"fmt"

	"github.com/xataio/ftsearch/internal/json"
)

// fingerprint is the canonical form of the schema state hashed into the
// index hash. Only structs and slices are used so that the serialisation is
// stable.
type fingerprint struct {
	DataStructure DataStructure      `json:"dataStructure"`
	Prefix        string             `json:"prefix"`
	IndexName     string             `json:"indexName"`
	IndexHashName string             `json:"indexHashName"`
	Fields        []fieldFingerprint `json:"fields"`
	UseStopWords  StopWordsMode      `json:"useStopWords"`
	StopWords     []string           `json:"stopWords,omitempty"`
}

type fieldFingerprint struct {
	Name     string             `json:"name"`
	Type     FieldType          `json:"type"`
	Indexed  bool               `json:"indexed"`
	Sortable bool               `json:"sortable,omitempty"`
	Fields   []fieldFingerprint `json:"fields,omitempty"`
}

func computeIndexHash(opts Options, fields []ResolvedField) (string, error) {
	fp := fingerprint{
		DataStructure: opts.DataStructure,
		Prefix:        opts.Prefix,
		IndexName:     opts.IndexName,
		IndexHashName: opts.IndexHashName,
		Fields:        fieldFingerprints(fields),
		UseStopWords:  opts.UseStopWords,
	}
	// the stop words list only reaches the index in CUSTOM mode
	if opts.UseStopWords == StopWordsCustom {
		fp.StopWords = opts.StopWords
	}

	data, err := json.Marshal(fp)
	if err != nil {
		return "", fmt.Errorf("marshaling schema fingerprint: %w", err)
	}

	digest := sha1.Sum(data) //nolint:gosec
	return base64.StdEncoding.EncodeToString(digest[:]), nil
}

func fieldFingerprints(fields []ResolvedField) []fieldFingerprint {
	fps := make([]fieldFingerprint, 0, len(fields))
	for _, f := range fields {
		fps = append(fps, fieldFingerprint{
			Name:     f.Name,
			Type:     f.Type.Type,
			Indexed:  f.Indexed,
			Sortable: f.Sortable,
			Fields:   fieldFingerprints(f.Fields),
		})
	}
	return fps
}
