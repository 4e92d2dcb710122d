package fetch

import (
	"sort"
	"strings"
	"unicode/utf16"
)

// toUnicode is a parsed ToUnicode CMap: character codes of one or more byte
// widths mapped to the text they represent.
type toUnicode struct {
	widths []int
	chars  map[string]string
	ranges []codeRange
}

type codeRange struct {
	width  int
	lo, hi uint32
	base   []rune
	list   []string
}

// parseToUnicode reads the codespace, bfchar and bfrange sections of a CMap.
// It returns nil when the stream maps nothing.
func parseToUnicode(data []byte) *toUnicode {
	cm := &toUnicode{chars: make(map[string]string)}
	widths := make(map[int]bool)

	var operands []pdfObject
	lx := &lexer{data: data}
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
		case "endcodespacerange":
			for i := 0; i+1 < len(operands); i += 2 {
				if n := len(operands[i].raw); n > 0 {
					widths[n] = true
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(operands); i += 2 {
				src, dst := operands[i], operands[i+1]
				if src.kind != kindString || dst.kind != kindString || len(src.raw) == 0 {
					continue
				}
				cm.chars[string(src.raw)] = utf16BE(dst.raw)
				widths[len(src.raw)] = true
			}
		case "endbfrange":
			for i := 0; i+2 < len(operands); i += 3 {
				lo, hi, dst := operands[i], operands[i+1], operands[i+2]
				if lo.kind != kindString || hi.kind != kindString || len(lo.raw) == 0 || len(lo.raw) != len(hi.raw) {
					continue
				}
				r := codeRange{width: len(lo.raw), lo: bigEndian(lo.raw), hi: bigEndian(hi.raw)}
				switch dst.kind {
				case kindString:
					r.base = []rune(utf16BE(dst.raw))
				case kindArray:
					for _, item := range dst.items {
						r.list = append(r.list, utf16BE(item.raw))
					}
				default:
					continue
				}
				if len(r.base) == 0 && r.list == nil {
					continue
				}
				cm.ranges = append(cm.ranges, r)
				widths[r.width] = true
			}
		}
		operands = operands[:0]
	}

	if len(cm.chars) == 0 && len(cm.ranges) == 0 {
		return nil
	}
	for w := range widths {
		cm.widths = append(cm.widths, w)
	}
	sort.Ints(cm.widths)
	return cm
}

func (cm *toUnicode) lookup(code []byte) (string, bool) {
	if s, ok := cm.chars[string(code)]; ok {
		return s, true
	}
	v := bigEndian(code)
	for _, r := range cm.ranges {
		if r.width != len(code) || v < r.lo || v > r.hi {
			continue
		}
		offset := v - r.lo
		if r.list != nil {
			if int(offset) < len(r.list) {
				return r.list[offset], true
			}
			return "", false
		}
		out := append([]rune(nil), r.base...)
		out[len(out)-1] += rune(offset)
		return string(out), true
	}
	return "", false
}

// decode maps b code by code, trying the shortest codespace width first.
// Unmapped codes are dropped.
func (cm *toUnicode) decode(b []byte) string {
	var sb strings.Builder
	for i := 0; i < len(b); {
		matched := false
		for _, w := range cm.widths {
			if i+w > len(b) {
				break
			}
			if s, ok := cm.lookup(b[i : i+w]); ok {
				sb.WriteString(s)
				i += w
				matched = true
				break
			}
		}
		if !matched {
			i += cm.widths[0]
		}
	}
	return sb.String()
}

func utf16BE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

func bigEndian(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}
