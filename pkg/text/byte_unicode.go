package text

// byteTable maps every byte to a printable rune so byte-level symbols can be
// stored as ordinary strings, and back.
type byteTable struct {
	enc [256]rune
	dec map[rune]byte
}

var bytesToUnicode = newByteTable()

func newByteTable() *byteTable {
	var bs []int
	for i := int('!'); i <= int('~'); i++ {
		bs = append(bs, i)
	}
	for i := int('¡'); i <= int('¬'); i++ {
		bs = append(bs, i)
	}
	for i := int('®'); i <= int('ÿ'); i++ {
		bs = append(bs, i)
	}

	printable := make([]bool, 256)
	for _, b := range bs {
		printable[b] = true
	}

	t := &byteTable{dec: make(map[rune]byte, 256)}
	n := 0
	for b := 0; b < 256; b++ {
		r := rune(b)
		if !printable[b] {
			r = rune(256 + n)
			n++
		}
		t.enc[b] = r
		t.dec[r] = byte(b)
	}
	return t
}

// symbols splits s into one byte-level symbol per input byte.
func (t *byteTable) symbols(s string) []string {
	out := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = string(t.enc[s[i]])
	}
	return out
}

// appendBytes decodes a byte-level symbol and appends the raw bytes to b.
func (t *byteTable) appendBytes(b []byte, symbol string) ([]byte, bool) {
	for _, r := range symbol {
		by, ok := t.dec[r]
		if !ok {
			return b, false
		}
		b = append(b, by)
	}
	return b, true
}
