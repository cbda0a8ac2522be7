// Package svgmap annotates the shared area and point map templates with
// per-organisation classes, links and circle sizes.
package svgmap

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

type Kind int

const (
	KindOther Kind = iota
	KindRoot
	KindShape
	KindCircle
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindShape:
		return "shape"
	case KindCircle:
		return "circle"
	default:
		return "other"
	}
}

var idPattern = regexp.MustCompile(`id="(\w+)`)

// Element is one line of the template. ID is the id declared on the line,
// Area the id most recently declared on or before it.
type Element struct {
	Raw  string
	ID   string
	Area string
	Kind Kind
}

type Template struct {
	Elements []Element
}

// Parse splits r into elements, one per line, keeping line endings.
func Parse(r io.Reader) (*Template, error) {
	reader := bufio.NewReader(r)
	t := &Template{}
	area := ""
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			e := Element{Raw: line, Kind: kindOf(line)}
			if m := idPattern.FindStringSubmatch(line); m != nil {
				e.ID = m[1]
				area = m[1]
			}
			e.Area = area
			t.Elements = append(t.Elements, e)
		}
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read map template: %w", err)
		}
	}
}

func ParseFile(path string) (*Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map template: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

func kindOf(line string) Kind {
	switch {
	case strings.Contains(line, "<svg"):
		return KindRoot
	case strings.Contains(line, "<circle"):
		return KindCircle
	case strings.Contains(line, "<path"):
		return KindShape
	default:
		return KindOther
	}
}

// Bytes reassembles the template exactly as it was read.
func (t *Template) Bytes() []byte {
	var buf bytes.Buffer
	for _, e := range t.Elements {
		buf.WriteString(e.Raw)
	}
	return buf.Bytes()
}

// Areas lists the ids declared in the template, in order.
func (t *Template) Areas() []string {
	var areas []string
	for _, e := range t.Elements {
		if e.ID != "" {
			areas = append(areas, e.ID)
		}
	}
	return areas
}

// Diagnostic is a non-fatal problem found while annotating a map.
type Diagnostic struct {
	Area         string
	Organisation string
	Message      string
}

func (d Diagnostic) String() string {
	switch {
	case d.Organisation != "" && d.Area != "":
		return fmt.Sprintf("%s: %s (%s)", d.Message, d.Area, d.Organisation)
	case d.Organisation != "":
		return fmt.Sprintf("%s: %s", d.Message, d.Organisation)
	case d.Area != "":
		return fmt.Sprintf("%s: %s", d.Message, d.Area)
	default:
		return d.Message
	}
}

func fixRoot(line string) string {
	return strings.ReplaceAll(line, "455", "465")
}
