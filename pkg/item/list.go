package item

// List is a SECS-II List item: an ordered, possibly empty sequence of
// child items. Its length field counts children, not bytes.
type List struct {
	Items []Item
}

func (l List) formatCode() byte { return formatList }
func (l List) length() int      { return len(l.Items) }

func (l List) encodePayload(buf []byte) ([]byte, error) {
	for _, child := range l.Items {
		childBuf, err := Encode(child)
		if err != nil {
			return nil, err
		}
		buf = append(buf, childBuf...)
	}
	return buf, nil
}

func (l List) Equal(other Item) bool {
	o, ok := other.(List)
	if !ok || len(o.Items) != len(l.Items) {
		return false
	}
	for i := range l.Items {
		if !l.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}
