// Package render formats box header lists for people and tools.
package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tetsuo/mp4parser"
)

// Format selects an output encoding.
type Format int

const (
	Text Format = iota // tab-indented tree
	JSON
	YAML
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "tree":
		return Text, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return Text, errors.Errorf("render: unknown format %q", s)
}

// Write encodes boxes to w in format f.
func Write(w io.Writer, f Format, boxes []mp4parser.BoxHeader) error {
	switch f {
	case JSON:
		return WriteJSON(w, boxes)
	case YAML:
		return WriteYAML(w, boxes)
	}
	return WriteTree(w, boxes)
}

// WriteTree writes one line per box, indented by one tab per level:
//
//	[moov, size: 100, offset: 0]
//		[trak, size: 80, offset: 8]
func WriteTree(w io.Writer, boxes []mp4parser.BoxHeader) error {
	bw := bufio.NewWriter(w)
	for _, b := range boxes {
		bw.WriteString(b.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteJSON writes boxes as an indented JSON array.
func WriteJSON(w io.Writer, boxes []mp4parser.BoxHeader) error {
	if boxes == nil {
		boxes = []mp4parser.BoxHeader{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(boxes)
}

// WriteYAML writes boxes as a YAML sequence.
func WriteYAML(w io.Writer, boxes []mp4parser.BoxHeader) error {
	if boxes == nil {
		boxes = []mp4parser.BoxHeader{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(boxes); err != nil {
		return err
	}
	return enc.Close()
}
