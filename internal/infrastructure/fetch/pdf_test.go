package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const cyrillicCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0003> <0020>
<0010> <0420>
endbfchar
2 beginbfrange
<0011> <0013> <0435>
<0020> <0021> [<043A> <0430>]
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

func TestShowTextSingleLineStream(t *testing.T) {
	t.Parallel()

	stream := []byte("BT /F1 12 Tf 72 712 Td (Hello world from a real textbook) Tj ET")
	require.Equal(t, "Hello world from a real textbook", normalizeSpace(showText(stream, nil)))
}

func TestShowTextOperators(t *testing.T) {
	t.Parallel()

	stream := []byte("BT\n/F1 12 Tf\n72 712 Td\n(Hello\\040world) Tj\n0 -14 Td\n[(Tex) -120 (tbook \\(2nd\\))] TJ\nT*\n(next line) '\nET\n")
	require.Equal(t, "Hello world Textbook (2nd) next line", normalizeSpace(showText(stream, nil)))
}

func TestShowTextKerningGapsBecomeSpaces(t *testing.T) {
	t.Parallel()

	stream := []byte("BT/F1 10 Tf[(Restaurant)-333(business)-20(es)]TJ ET")
	require.Equal(t, "Restaurant businesses", normalizeSpace(showText(stream, nil)))
}

func TestShowTextDecodesThroughToUnicode(t *testing.T) {
	t.Parallel()

	cm := parseToUnicode([]byte(cyrillicCMap))
	require.NotNil(t, cm)
	require.Equal(t, []int{2}, cm.widths)

	fonts := map[string]*fontDecoder{"F2": {cmap: cm, composite: true}}
	stream := []byte("BT /F2 11 Tf 50 700 Td <0010001100200021> Tj [<0003>-50<00120013>] TJ ET")
	require.Equal(t, "Река жз", normalizeSpace(showText(stream, fonts)))
}

func TestShowTextHexWithoutFont(t *testing.T) {
	t.Parallel()

	stream := []byte("BT <00480065006C006C006F> Tj <FEFF041F04400438043C04350440> Tj <041A043D043804330430> Tj ET")
	require.Equal(t, "HelloПримерКнига", normalizeSpace(showText(stream, nil)))
}

func TestShowTextOctalEscapesAreWindows1252(t *testing.T) {
	t.Parallel()

	stream := []byte(`BT (Caf\351 \223quoted\224) Tj ET`)
	require.Equal(t, "Café “quoted”", normalizeSpace(showText(stream, nil)))
}

func TestShowTextCompositeFontWithoutMapIsDropped(t *testing.T) {
	t.Parallel()

	fonts := map[string]*fontDecoder{"F3": {composite: true}}
	stream := []byte("BT /F3 9 Tf <0102A0B1> Tj /F1 9 Tf (plain) Tj ET")
	require.Equal(t, "plain", normalizeSpace(showText(stream, fonts)))
}

func TestShowTextSkipsInlineImages(t *testing.T) {
	t.Parallel()

	stream := []byte("q BI /W 2 /H 1 /BPC 8 /CS /G ID \x00(Tj)\xff EI Q BT (after image) Tj ET")
	require.Equal(t, "after image", normalizeSpace(showText(stream, nil)))
}

func TestParseToUnicodeEmpty(t *testing.T) {
	t.Parallel()

	require.Nil(t, parseToUnicode([]byte("begincmap endcmap")))
}
