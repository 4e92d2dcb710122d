package fetch

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

// wordGap is the TJ displacement (thousandths of an em) treated as a space.
// Producers such as pdfTeX emit no space glyphs between words.
const wordGap = -180

// extractPDFText reads the document with pdfcpu and recovers the strings
// shown by text operators on every page, decoded through each font's
// ToUnicode map where the page resources provide one.
func extractPDFText(data []byte) (string, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	for page := 1; page <= ctx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil || r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil || len(stream) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(showText(stream, pageFonts(ctx, page)))
	}
	return sb.String(), nil
}

// pageFonts maps the resource names of a page's fonts to their decoders.
func pageFonts(ctx *model.Context, page int) map[string]*fontDecoder {
	_, _, attrs, err := ctx.PageDict(page, false)
	if err != nil || attrs == nil || attrs.Resources == nil {
		return nil
	}
	obj, found := attrs.Resources.Find("Font")
	if !found {
		return nil
	}
	fonts, err := ctx.DereferenceDict(obj)
	if err != nil || fonts == nil {
		return nil
	}

	out := make(map[string]*fontDecoder, len(fonts))
	for name, ref := range fonts {
		fd, err := ctx.DereferenceDict(ref)
		if err != nil || fd == nil {
			continue
		}
		dec := &fontDecoder{}
		if subtype := fd.NameEntry("Subtype"); subtype != nil && *subtype == "Type0" {
			dec.composite = true
		}
		if tu, ok := fd.Find("ToUnicode"); ok {
			sd, _, err := ctx.DereferenceStreamDict(tu)
			if err == nil && sd != nil && sd.Decode() == nil {
				dec.cmap = parseToUnicode(sd.Content)
			}
		}
		out[name] = dec
	}
	return out
}

// fontDecoder turns the bytes of a shown string into text.
type fontDecoder struct {
	cmap      *toUnicode
	composite bool
}

func (f *fontDecoder) decode(b []byte) string {
	switch {
	case f != nil && f.cmap != nil:
		return f.cmap.decode(b)
	case f != nil && f.composite:
		// Identity-encoded glyph ids carry no text without a ToUnicode map.
		if s, ok := decodeUTF16(b); ok {
			return s
		}
		return ""
	}
	if s, ok := decodeUTF16(b); ok {
		return s
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(s)
}

// decodeUTF16 accepts big-endian UTF-16 with a BOM, or BOM-less code units
// that all fall in the Latin-1 or Cyrillic blocks and decode to printable text.
func decodeUTF16(b []byte) (string, bool) {
	if len(b) < 2 || len(b)%2 != 0 {
		return "", false
	}
	bom := b[0] == 0xFE && b[1] == 0xFF
	if bom {
		b = b[2:]
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		if !bom && b[i] != 0x00 && b[i] != 0x04 {
			return "", false
		}
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	runes := utf16.Decode(units)
	for _, r := range runes {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return "", false
		}
	}
	return string(runes), true
}

// showText interprets a page content stream and collects the text shown by
// Tj, TJ, ' and ". Line and matrix moves become spaces.
func showText(stream []byte, fonts map[string]*fontDecoder) string {
	var (
		sb       strings.Builder
		operands []pdfObject
		font     *fontDecoder
	)
	lx := &lexer{data: stream}
	for {
		obj, ok := lx.object()
		if !ok {
			break
		}
		if obj.kind != kindOperator {
			operands = append(operands, obj)
			continue
		}

		switch obj.text {
		case "Tf":
			if len(operands) >= 2 && operands[len(operands)-2].kind == kindName {
				font = fonts[operands[len(operands)-2].text]
			}
		case "Tj":
			if s, ok := lastString(operands); ok {
				sb.WriteString(font.decode(s))
			}
		case "'", `"`:
			sb.WriteByte(' ')
			if s, ok := lastString(operands); ok {
				sb.WriteString(font.decode(s))
			}
		case "TJ":
			if len(operands) > 0 && operands[len(operands)-1].kind == kindArray {
				for _, item := range operands[len(operands)-1].items {
					switch {
					case item.kind == kindString:
						sb.WriteString(font.decode(item.raw))
					case item.kind == kindNumber && item.num <= wordGap:
						sb.WriteByte(' ')
					}
				}
			}
		case "Td", "TD", "Tm", "T*", "BT", "ET":
			sb.WriteByte(' ')
		case "ID":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}
	return sb.String()
}

func lastString(operands []pdfObject) ([]byte, bool) {
	if len(operands) == 0 || operands[len(operands)-1].kind != kindString {
		return nil, false
	}
	return operands[len(operands)-1].raw, true
}

type objectKind int

const (
	kindOperator objectKind = iota
	kindNumber
	kindString
	kindName
	kindArray
	kindDict
	kindArrayEnd
	kindDictEnd
)

type pdfObject struct {
	kind  objectKind
	text  string
	raw   []byte
	num   float64
	items []pdfObject
}

// lexer tokenises PDF content streams and CMaps.
type lexer struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// object returns the next complete object, folding arrays and dictionaries.
func (l *lexer) object() (pdfObject, bool) {
	tok, ok := l.token()
	if !ok {
		return pdfObject{}, false
	}
	switch tok.kind {
	case kindArray, kindDict:
		end := kindArrayEnd
		if tok.kind == kindDict {
			end = kindDictEnd
		}
		for {
			item, ok := l.object()
			if !ok || item.kind == end {
				return tok, true
			}
			tok.items = append(tok.items, item)
		}
	}
	return tok, true
}

func (l *lexer) token() (pdfObject, bool) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.data) {
		return pdfObject{}, false
	}
	c := l.data[l.pos]
	switch {
	case c == '(':
		l.pos++
		return pdfObject{kind: kindString, raw: l.literal()}, true
	case c == '<' && l.peek(1) == '<':
		l.pos += 2
		return pdfObject{kind: kindDict}, true
	case c == '>' && l.peek(1) == '>':
		l.pos += 2
		return pdfObject{kind: kindDictEnd}, true
	case c == '<':
		l.pos++
		return pdfObject{kind: kindString, raw: l.hex()}, true
	case c == '[':
		l.pos++
		return pdfObject{kind: kindArray}, true
	case c == ']':
		l.pos++
		return pdfObject{kind: kindArrayEnd}, true
	case c == '/':
		l.pos++
		return pdfObject{kind: kindName, text: l.name()}, true
	case isDelimiter(c):
		// Stray ')', '>', '{' or '}' carry nothing for text.
		l.pos++
		return l.token()
	}

	word := l.regular()
	if n, ok := parseNumber(word); ok {
		return pdfObject{kind: kindNumber, text: word, num: n}, true
	}
	return pdfObject{kind: kindOperator, text: word}, true
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.data) {
		return 0
	}
	return l.data[l.pos+offset]
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isPDFSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) && !isPDFSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func (l *lexer) name() string {
	raw := l.regular()
	if !strings.Contains(raw, "#") {
		return raw
	}
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			if v, ok := hexByte(raw[i+1], raw[i+2]); ok {
				sb.WriteByte(v)
				i += 2
				continue
			}
		}
		sb.WriteByte(raw[i])
	}
	return sb.String()
}

// literal reads a parenthesised string after the opening paren, resolving
// escapes and balanced nested parentheses.
func (l *lexer) literal() []byte {
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out
			}
		case '\\':
			if l.pos >= len(l.data) {
				return out
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for k := 0; k < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; k++ {
					v = v*8 + int(l.data[l.pos]-'0')
					l.pos++
				}
				out = append(out, byte(v))
			default:
				out = append(out, e)
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

// hex reads a hex string after the opening angle bracket. An odd final
// digit is padded with zero.
func (l *lexer) hex() []byte {
	var (
		out  []byte
		high byte
		half bool
	)
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		v, ok := hexDigit(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, high<<4|v)
		} else {
			high = v
		}
		half = !half
	}
	if half {
		out = append(out, high<<4)
	}
	return out
}

// skipInlineImage moves past binary image data up to the EI operator.
func (l *lexer) skipInlineImage() {
	for l.pos+2 <= len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			(l.pos == 0 || isPDFSpace(l.data[l.pos-1])) &&
			(l.pos+2 == len(l.data) || isPDFSpace(l.data[l.pos+2])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

func parseNumber(s string) (float64, bool) {
	if s == "" || !strings.ContainsAny(s[:1], "+-.0123456789") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexDigit(hi)
	l, ok2 := hexDigit(lo)
	return h<<4 | l, ok1 && ok2
}
