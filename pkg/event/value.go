// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
package event

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Value is the recursive JSON-compatible sum type used for event properties
// and traits: string, integer, double, boolean, null, array, or object.
// Conversion from a host language's loose map happens at the public API
// boundary, not inside this package.
type Value struct {
	kind  valueKind
	str   string
	num   float64
	isInt bool
	boo   bool
	arr   []Value
	obj   map[string]Value
}

type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindInt
	kindFloat
	kindBool
	kindArray
	kindObject
)

func Null() Value                    { return Value{kind: kindNull} }
func String(s string) Value          { return Value{kind: kindString, str: s} }
func Int(i int64) Value              { return Value{kind: kindInt, num: float64(i), isInt: true} }
func Float(f float64) Value          { return Value{kind: kindFloat, num: f} }
func Bool(b bool) Value              { return Value{kind: kindBool, boo: b} }
func Array(vs []Value) Value         { return Value{kind: kindArray, arr: vs} }
func Object(m map[string]Value) Value { return Value{kind: kindObject, obj: m} }

func (v Value) IsNull() bool { return v.kind == kindNull }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNull:
		return []byte("null"), nil
	case kindString:
		return json.Marshal(v.str)
	case kindInt:
		return json.Marshal(int64(v.num))
	case kindFloat:
		return json.Marshal(v.num)
	case kindBool:
		return json.Marshal(v.boo)
	case kindArray:
		return json.Marshal(v.arr)
	case kindObject:
		return json.Marshal(v.obj)
	default:
		return nil, errors.Errorf("event: unknown value kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Null()
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "event: decode string value")
		}
		*v = String(s)
		return nil
	case len(data) > 0 && (data[0] == 't' || data[0] == 'f'):
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return errors.Wrap(err, "event: decode bool value")
		}
		*v = Bool(b)
		return nil
	case len(data) > 0 && data[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.Wrap(err, "event: decode array value")
		}
		arr := make([]Value, len(raw))
		for i, r := range raw {
			if err := arr[i].UnmarshalJSON(r); err != nil {
				return err
			}
		}
		*v = Array(arr)
		return nil
	case len(data) > 0 && data[0] == '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.Wrap(err, "event: decode object value")
		}
		obj := make(map[string]Value, len(raw))
		for k, r := range raw {
			var child Value
			if err := child.UnmarshalJSON(r); err != nil {
				return err
			}
			obj[k] = child
		}
		*v = Object(obj)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return errors.Wrap(err, "event: decode numeric value")
		}
		if f == float64(int64(f)) && !bytes.ContainsAny(data, ".eE") {
			*v = Int(int64(f))
		} else {
			*v = Float(f)
		}
		return nil
	}
}
