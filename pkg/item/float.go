package item

import "math"

// Float is a SECS-II IEEE-754 floating point item (F4/F8, selected by
// Width). Values are stored widened to float64; Width determines the
// wire encoding.
type Float struct {
	Width  int // 4 or 8
	Values []float64
}

func (n Float) formatCode() byte {
	switch n.Width {
	case 4:
		return formatF4
	case 8:
		return formatF8
	default:
		panic("item: invalid Float width")
	}
}

func (n Float) length() int { return len(n.Values) * n.Width }

func (n Float) encodePayload(buf []byte) ([]byte, error) {
	for _, v := range n.Values {
		if n.Width == 4 {
			buf = appendBigEndian(buf, uint64(math.Float32bits(float32(v))), 4)
		} else {
			buf = appendBigEndian(buf, math.Float64bits(v), 8)
		}
	}
	return buf, nil
}

func (n Float) Equal(other Item) bool {
	o, ok := other.(Float)
	if !ok || o.Width != n.Width || len(o.Values) != len(n.Values) {
		return false
	}
	for i := range n.Values {
		if n.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

func decodeFloat(d *decoder, n, width int) (Item, error) {
	if n%width != 0 {
		return nil, errInvalid("float byte length %d not divisible by width %d", n, width)
	}
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	values := make([]float64, n/width)
	for i := range values {
		var u uint64
		for _, by := range b[i*width : (i+1)*width] {
			u = u<<8 | uint64(by)
		}
		if width == 4 {
			values[i] = float64(math.Float32frombits(uint32(u)))
		} else {
			values[i] = math.Float64frombits(u)
		}
	}
	return Float{Width: width, Values: values}, nil
}
