package tablewriter

// =============================================================================
// XML OUTPUT
// =============================================================================
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <razao>
//     <lancamento n="1">
//       <Data>2024-01-05</Data>
//       <Credito>1500</Credito>
//       <Debito>0</Debito>
//       <Historico>Depósito</Historico>
//       <Conta>100 - Banco</Conta>
//     </lancamento>
//   </razao>
//
// Element names are the column names with accents removed and every
// character that XML does not allow in a name replaced by "_". Amounts use
// "." as decimal separator. Empty cells become self-closing elements.
//
// =============================================================================

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/ginjaninja78/razao/internal/ledger"
	"github.com/ginjaninja78/razao/internal/types"
)

// xmlElement is a generic element: either a text value or children.
type xmlElement struct {
	name     string
	attrs    [][2]string
	value    string
	children []xmlElement
}

func writeXML(w io.Writer, table *types.Table, opts Options) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")

	root := sanitizeTag(opts.XMLRootTag)
	rowTag := sanitizeTag(opts.XMLRowTag)

	tags := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		tags[i] = sanitizeTag(column)
	}

	fmt.Fprintf(bw, "<%s>\n", root)
	for r, row := range table.Rows {
		el := xmlElement{
			name:  rowTag,
			attrs: [][2]string{{"n", strconv.Itoa(r + 1)}},
		}
		for i, column := range table.Columns {
			v, _ := row.Get(column)
			el.children = append(el.children, xmlElement{name: tags[i], value: v.String()})
		}
		writeElement(bw, el, opts.Indent, 1)
	}
	fmt.Fprintf(bw, "</%s>\n", root)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// writeElement writes an element and its children with indentation.
func writeElement(bw *bufio.Writer, el xmlElement, indent string, level int) {
	pad := strings.Repeat(indent, level)

	bw.WriteString(pad)
	bw.WriteString("<")
	bw.WriteString(el.name)
	for _, attr := range el.attrs {
		fmt.Fprintf(bw, " %s=\"%s\"", attr[0], escapeXML(attr[1]))
	}

	if len(el.children) == 0 && el.value == "" {
		bw.WriteString("/>\n")
		return
	}
	bw.WriteString(">")

	if len(el.children) == 0 {
		bw.WriteString(escapeXML(el.value))
	} else {
		bw.WriteString("\n")
		for _, child := range el.children {
			writeElement(bw, child, indent, level+1)
		}
		bw.WriteString(pad)
	}

	bw.WriteString("</")
	bw.WriteString(el.name)
	bw.WriteString(">\n")
}

// escapeXML escapes the five predefined entities and drops characters that
// XML 1.0 cannot carry.
func escapeXML(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeTag turns a column name into a valid XML element name:
// "Crédito" -> "Credito", "Centro de Custo" -> "Centro_de_Custo",
// "2024" -> "_2024".
func sanitizeTag(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(ledger.StripAccents(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	tag := b.String()
	if tag == "" {
		return "campo"
	}
	if first := rune(tag[0]); !unicode.IsLetter(first) && first != '_' {
		tag = "_" + tag
	}
	if strings.HasPrefix(strings.ToLower(tag), "xml") {
		tag = "_" + tag
	}
	return tag
}
