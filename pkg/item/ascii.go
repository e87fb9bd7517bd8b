package item

// Ascii is a SECS-II ASCII item: a sequence of 7-bit characters.
type Ascii struct {
	Text string
}

func (a Ascii) formatCode() byte { return formatAscii }
func (a Ascii) length() int      { return len(a.Text) }

func (a Ascii) encodePayload(buf []byte) ([]byte, error) {
	return append(buf, a.Text...), nil
}

func (a Ascii) Equal(other Item) bool {
	o, ok := other.(Ascii)
	return ok && o.Text == a.Text
}

// Jis8 is a SECS-II JIS-8 item: bytes interpreted as ISO-2022-JP text.
// The module treats the payload as an opaque byte string; callers that
// need the decoded text transcode it themselves.
type Jis8 struct {
	Bytes []byte
}

func (j Jis8) formatCode() byte { return formatJis8 }
func (j Jis8) length() int      { return len(j.Bytes) }

func (j Jis8) encodePayload(buf []byte) ([]byte, error) {
	return append(buf, j.Bytes...), nil
}

func (j Jis8) Equal(other Item) bool {
	o, ok := other.(Jis8)
	return ok && bytesEqual(o.Bytes, j.Bytes)
}

// Localized is a SECS-II item carrying a 2-byte character-set header
// followed by charset-encoded bytes.
type Localized struct {
	Charset uint16
	Bytes   []byte
}

func (l Localized) formatCode() byte { return formatLocal }
func (l Localized) length() int      { return len(l.Bytes) + 2 }

func (l Localized) encodePayload(buf []byte) ([]byte, error) {
	buf = append(buf, byte(l.Charset>>8), byte(l.Charset))
	return append(buf, l.Bytes...), nil
}

func (l Localized) Equal(other Item) bool {
	o, ok := other.(Localized)
	return ok && o.Charset == l.Charset && bytesEqual(o.Bytes, l.Bytes)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
