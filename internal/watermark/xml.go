package watermark

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"sync"
)

const (
	videoElement = "video"
	titleAttr    = "title"
	timeAttr     = "time"
)

// xmlNode is a child of the document element kept verbatim apart from its
// attributes.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

type xmlDocument struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
}

// XMLStore reads and writes the control document
//
//	<videos>
//	  <video title="Holiday" time="201501311200"/>
//	</videos>
//
// Elements other than <video>, and attributes other than title and time,
// survive a load/save cycle untouched.
type XMLStore struct {
	path string

	mu  sync.Mutex
	doc *xmlDocument
}

// NewXMLStore creates a store for the control document at path.
func NewXMLStore(path string) *XMLStore {
	return &XMLStore{path: path}
}

// Close is a no-op; the document is only open during Load and Save.
func (s *XMLStore) Close() error {
	return nil
}

// Load parses the control document. A <video> without a time attribute
// maps to Epoch; one with a malformed time or no title is ignored.
func (s *XMLStore) Load(ctx context.Context) (Watermarks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	table := Watermarks{}

	for _, node := range doc.Nodes {
		if node.XMLName.Local != videoElement {
			continue
		}

		title, ok := attr(node.Attrs, titleAttr)
		if !ok {
			continue
		}

		raw, ok := attr(node.Attrs, timeAttr)
		if !ok {
			table[title] = Epoch()
			continue
		}

		t, err := ParseTime(raw)
		if err != nil {
			continue
		}

		table[title] = t
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	return table, nil
}

// Location returns the document path.
func (s *XMLStore) Location() string {
	return s.path
}

// Save writes table into the last loaded document, updating time attributes
// in place and appending a <video> for every folder not yet listed.
func (s *XMLStore) Save(ctx context.Context, table Watermarks) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.doc
	if doc == nil {
		loaded, err := s.read()

		switch {
		case err == nil:
			doc = loaded
		case errors.Is(err, os.ErrNotExist):
			doc = &xmlDocument{XMLName: xml.Name{Local: "videos"}}
		default:
			return err
		}
	}

	updated, err := applyTable(doc, table)
	if err != nil {
		return storeError("encode", s.path, err)
	}

	out, err := xml.MarshalIndent(updated, "", "  ")
	if err != nil {
		return storeError("encode", s.path, err)
	}

	var buf bytes.Buffer

	buf.WriteString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')

	err = writeFileAtomic(s.path, buf.Bytes())
	if err != nil {
		return err
	}

	s.doc = updated

	return nil
}

func (s *XMLStore) read() (*xmlDocument, error) {
	data, err := readStoreFile(s.path)
	if err != nil {
		return nil, err
	}

	doc := &xmlDocument{}

	err = xml.Unmarshal(data, doc)
	if err != nil {
		return nil, storeError("parse", s.path, err)
	}

	return doc, nil
}

// applyTable returns a copy of doc carrying table's timestamps.
func applyTable(doc *xmlDocument, table Watermarks) (*xmlDocument, error) {
	updated := &xmlDocument{
		XMLName: doc.XMLName,
		Attrs:   doc.Attrs,
		Nodes:   make([]xmlNode, 0, len(doc.Nodes)+len(table)),
	}
	listed := make(map[string]bool, len(table))

	for _, node := range doc.Nodes {
		node.Attrs = append([]xml.Attr(nil), node.Attrs...)

		title, ok := attr(node.Attrs, titleAttr)
		if node.XMLName.Local == videoElement && ok {
			listed[title] = true

			if t, tracked := table[title]; tracked {
				value, err := FormatTime(t)
				if err != nil {
					return nil, fmt.Errorf("folder %q: %w", title, err)
				}

				node.Attrs = setAttr(node.Attrs, timeAttr, value)
			}
		}

		updated.Nodes = append(updated.Nodes, node)
	}

	for _, folder := range table.Folders() {
		if listed[folder] {
			continue
		}

		value, err := FormatTime(table[folder])
		if err != nil {
			return nil, fmt.Errorf("folder %q: %w", folder, err)
		}

		updated.Nodes = append(updated.Nodes, xmlNode{
			XMLName: xml.Name{Local: videoElement},
			Attrs: []xml.Attr{
				{Name: xml.Name{Local: titleAttr}, Value: folder},
				{Name: xml.Name{Local: timeAttr}, Value: value},
			},
		})
	}

	return updated, nil
}

func attr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}

	return "", false
}

func setAttr(attrs []xml.Attr, name, value string) []xml.Attr {
	for i := range attrs {
		if attrs[i].Name.Space == "" && attrs[i].Name.Local == name {
			attrs[i].Value = value
			return attrs
		}
	}

	return append(attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}
