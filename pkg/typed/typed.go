// Package typed layers Go generics over the untyped pkg/item.Item tree,
// mirroring the structural helpers (OptionList, VecList, Tuple2..Tuple6)
// that original_source/semi_e5 builds with Rust tuple structs and
// newtypes. A typed message converts to and from the wire-level
// hsms.E5Message via ToGeneric/FromGeneric; nothing here changes how
// bytes are framed or classified, it only gives strongly-typed Go
// structs a path on and off pkg/item.Item.
package typed

import "github.com/wolimst/lib-secs2-hsms-go/pkg/item"

// Codec converts a Go value of type T to and from its pkg/item.Item wire
// representation. Each dictionary message field type (ModelName,
// SoftwareRevision, CommAck, ...) has one; OptionList and VecList take
// the Codec of their element type. TupleN values have no Codec of their
// own: each concrete tuple needs a Codec written for it.
type Codec[T any] interface {
	ToItem(v T) item.Item
	FromItem(it item.Item) (T, error)
}

// VecList is a variable-length, homogeneously-typed SECS-II list, the Go
// analog of the Rust crate's VecList<T> used for things like
// SelectedEquipmentStatusRequest's list of StatusVariableIDs.
type VecList[T any] struct {
	Values []T
}

// ToItem encodes a VecList using codec for each element.
func (l VecList[T]) ToItem(codec Codec[T]) item.Item {
	items := make([]item.Item, len(l.Values))
	for i, v := range l.Values {
		items[i] = codec.ToItem(v)
	}
	return item.List{Items: items}
}

// VecListFromItem decodes a List item into a VecList using codec for
// each element, returning an error if it is not a List or any element
// fails to decode.
func VecListFromItem[T any](it item.Item, codec Codec[T]) (VecList[T], error) {
	list, ok := it.(item.List)
	if !ok {
		return VecList[T]{}, &item.Error{Kind: item.ErrInvalidText, Msg: "expected a List item"}
	}
	values := make([]T, len(list.Items))
	for i, child := range list.Items {
		v, err := codec.FromItem(child)
		if err != nil {
			return VecList[T]{}, err
		}
		values[i] = v
	}
	return VecList[T]{Values: values}, nil
}

// OptionList represents a SECS-II list item that is present with N
// elements or present as a zero-length list, the shape
// HostCRA/EquipmentCRA use for their trailing optional MDLN/SOFTREV
// pair: a zero-length list signals "absent" without requiring a
// sentinel value for each field.
type OptionList[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) OptionList[T] { return OptionList[T]{Value: v, Valid: true} }

// None represents an absent value (encodes as a zero-length list).
func None[T any]() OptionList[T] { return OptionList[T]{} }

// ToItem encodes an OptionList as either codec.ToItem(Value), when
// Valid, or an empty List.
func (o OptionList[T]) ToItem(codec Codec[T]) item.Item {
	if !o.Valid {
		return item.List{}
	}
	return codec.ToItem(o.Value)
}

// OptionListFromItem decodes it as present unless it is a zero-length
// List.
func OptionListFromItem[T any](it item.Item, codec Codec[T]) (OptionList[T], error) {
	if list, ok := it.(item.List); ok && len(list.Items) == 0 {
		return None[T](), nil
	}
	v, err := codec.FromItem(it)
	if err != nil {
		return OptionList[T]{}, err
	}
	return Some(v), nil
}

// Tuple2 holds the fields of a fixed-arity, heterogeneously-typed SECS-II
// list, the Go analog of the Rust crate's tuple structs such as
// `(ModelName, SoftwareRevision)`. Tuple2..Tuple6 are plain structs with
// no encoding of their own; the only Codec for a tuple in this package is
// the (MDLN, SOFTREV) one in fields.go, which encodes a 2-element List and
// rejects any other length on decode.
type Tuple2[A, B any] struct {
	First  A
	Second B
}

// Tuple3 is the 3-element counterpart of Tuple2.
type Tuple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Tuple4 is the 4-element counterpart of Tuple2.
type Tuple4[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

// Tuple5 is the 5-element counterpart of Tuple2.
type Tuple5[A, B, C, D, E any] struct {
	First  A
	Second B
	Third  C
	Fourth D
	Fifth  E
}

// Tuple6 is the 6-element counterpart of Tuple2.
type Tuple6[A, B, C, D, E, F any] struct {
	First  A
	Second B
	Third  C
	Fourth D
	Fifth  E
	Sixth  F
}
