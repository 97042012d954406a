package normalizer

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Kind 原始字段形态
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindList
)

// Value 单个原始字段。各平台 payload 的字段形态不可预测，统一先转成 Value 再交给字段规范化函数。
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	obj  map[string]Value
	list []Value
}

// Absent 缺失值
func Absent() Value { return Value{} }

// String 字符串值
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number 数值
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool 布尔值
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Object 对象值
func Object(m map[string]any) Value { return FromAny(m) }

// FromAny 由 JSON 解码结果（或手工构造的 map/slice）构造 Value
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Absent()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = FromAny(item)
		}
		return Value{kind: KindObject, obj: obj}
	case map[string]string:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = String(item)
		}
		return Value{kind: KindObject, obj: obj}
	case []any:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			list = append(list, FromAny(item))
		}
		return Value{kind: KindList, list: list}
	case []string:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			list = append(list, String(item))
		}
		return Value{kind: KindList, list: list}
	case []map[string]any:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			list = append(list, FromAny(item))
		}
		return Value{kind: KindList, list: list}
	default:
		return Absent()
	}
}

func (v Value) Kind() Kind { return v.kind }

// IsAbsent 缺失，或为空白/占位字符串
func (v Value) IsAbsent() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindString:
		return isBlank(v.str)
	case KindObject:
		return len(v.obj) == 0
	case KindList:
		return len(v.list) == 0
	}
	return false
}

// Str 字符串内容
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Num 数值内容
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// BoolVal 布尔内容
func (v Value) BoolVal() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Text 字符串或数值的文本形式，其他形态返回空串
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		if isBlank(v.str) {
			return ""
		}
		return strings.TrimSpace(v.str)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return ""
}

// Field 对象字段，先精确匹配再忽略大小写匹配
func (v Value) Field(key string) Value {
	if v.kind != KindObject {
		return Absent()
	}
	if f, ok := v.obj[key]; ok {
		return f
	}
	for _, k := range v.Keys() {
		if strings.EqualFold(k, key) {
			return v.obj[k]
		}
	}
	return Absent()
}

// First 按顺序返回第一个非空字段
func (v Value) First(keys ...string) Value {
	for _, k := range keys {
		if f := v.Field(k); !f.IsAbsent() {
			return f
		}
	}
	return Absent()
}

// Keys 对象字段名（排序，保证遍历确定性）
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Items 列表元素
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

var blankMarkers = map[string]struct{}{
	"":     {},
	"none": {},
	"null": {},
	"nil":  {},
	"n/a":  {},
	"-":    {},
	"tba":  {},
	"tbd":  {},
}

func isBlank(s string) bool {
	_, ok := blankMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
