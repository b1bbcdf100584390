package parser

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// parseEntities extracts every entity table of the data:extend call in
// content. Each entity is returned as a record; list entries that are not
// records are reported and skipped.
func parseEntities(source, content string, x *Extractor) ([]map[string]any, []*ParseError, error) {
	section, err := IsolateSection(content)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", source, err)
	}
	table, err := ParseSection(source, section)
	if err != nil {
		return nil, nil, err
	}

	var errs []*ParseError
	var records []map[string]any
	for _, f := range table.Fields {
		if f.Key != nil {
			continue
		}
		v, fieldErrs := x.ExtractValue("", f.Value)
		record, ok := v.(map[string]any)
		name, _ := record["name"].(string)
		annotate(fieldErrs, source, name)
		errs = append(errs, fieldErrs...)

		if !ok || name == "" {
			errs = append(errs, &ParseError{
				Source: source,
				Line:   f.Value.Line(),
				Err:    fmt.Errorf("entry is not a named prototype table: %w", ErrUnsupportedExpression),
			})
			continue
		}
		records = append(records, record)
	}
	return records, errs, nil
}

// Decode copies an extracted value into out, converting numbers and
// strings as needed. Slices and maps in out are replaced, not merged; a nil
// input zeroes the target.
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// decodeEntity decodes a record and converts a failure into a ParseError.
func decodeEntity(source string, record map[string]any, out any) *ParseError {
	if err := Decode(record, out); err != nil {
		name, _ := record["name"].(string)
		return &ParseError{Source: source, Entity: name, Err: fmt.Errorf("decoding: %w", err)}
	}
	return nil
}
