// Package collada decodes the geometry subset of Collada (.dae) documents.
package collada

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"
)

// Errors returned while resolving mesh data
var (
	ErrNoGeometry = errors.New("collada: document has no geometry")
	ErrNoSource   = errors.New("collada: referenced source not found")
)

// Decode parses a Collada document.
func Decode(data []byte) (*Collada, error) {
	var c Collada
	if err := xml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Collada is the top-level Collada object
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// FirstMesh returns the mesh of the first geometry.
func (c *Collada) FirstMesh() (*Mesh, error) {
	if len(c.Geometries) == 0 {
		return nil, ErrNoGeometry
	}
	return &c.Geometries[0].Mesh, nil
}

// Geometry represents Collada's geometry
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data
type Mesh struct {
	Source    []Source  `xml:"source"`
	Vertices  Vertices  `xml:"vertices"`
	Triangles Triangles `xml:"triangles"`
}

// Lookup finds a source by a "#id" style reference or a plain id.
func (m *Mesh) Lookup(ref string) (*Source, error) {
	id := strings.TrimPrefix(ref, "#")
	for i := range m.Source {
		if m.Source[i].ID == id {
			return &m.Source[i], nil
		}
	}
	return nil, ErrNoSource
}

// Positions resolves the position source through the VERTEX input of
// the triangles and the POSITION input of the vertices element. Exporters
// that skip the indirection are handled by looking for a "-positions" id.
func (m *Mesh) Positions() (*Source, error) {
	for _, in := range m.Vertices.Inputs {
		if in.Semantic == "POSITION" {
			return m.Lookup(in.Source)
		}
	}
	for i := range m.Source {
		if strings.HasSuffix(m.Source[i].ID, "-positions") {
			return &m.Source[i], nil
		}
	}
	return nil, ErrNoSource
}

// Source links to other sources where data is present
type Source struct {
	ID       string   `xml:"id,attr"`
	Floats   Floats   `xml:"float_array"`
	Accessor Accessor `xml:"technique_common>accessor"`
}

// Stride is the number of floats per element, three when unspecified.
func (s *Source) Stride() int {
	if s.Accessor.Stride > 0 {
		return s.Accessor.Stride
	}
	return 3
}

// Element returns the floats of the element at idx.
func (s *Source) Element(idx int) ([]float32, bool) {
	stride := s.Stride()
	if idx < 0 || (idx+1)*stride > len(s.Floats.Data) {
		return nil, false
	}
	return s.Floats.Data[idx*stride : (idx+1)*stride], true
}

// Accessor describes how to read a float array.
type Accessor struct {
	Count  int `xml:"count,attr"`
	Stride int `xml:"stride,attr"`
}

// Floats is the array of floats
type Floats struct {
	ID   string
	Data []float32
}

// UnmarshalXML unmarshals the array of floats
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "id" {
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	for _, r := range strings.Fields(raw) {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return err
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertices
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contain the list of triangles
type Triangles struct {
	Count    int
	Material string
	Inputs   []Input
	Index    []int
}

// Stride is the number of indices per triangle corner.
func (t *Triangles) Stride() int {
	var stride uint
	for _, in := range t.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	if stride == 0 {
		return 1
	}
	return int(stride)
}

// Offset returns the index offset of the input with the given semantic.
func (t *Triangles) Offset(semantic string) (int, bool) {
	for _, in := range t.Inputs {
		if in.Semantic == semantic {
			return int(in.Offset), true
		}
	}
	return 0, false
}

// Corners returns the number of triangle corners in the index list.
func (t *Triangles) Corners() int {
	return len(t.Index) / t.Stride()
}

// UnmarshalXML parses the index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return err
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				fields := strings.Fields(raw)
				t.Index = make([]int, 0, len(fields))
				for _, r := range fields {
					num, err := strconv.Atoi(r)
					if err != nil {
						return err
					}
					t.Index = append(t.Index, num)
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// Input is Collada'a input type
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}
