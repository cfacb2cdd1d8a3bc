package pbxparser

import (
	"encoding/json"
	"reflect"
)

type IterateActionType = int8

const (
	IterateActionContinue IterateActionType = iota
	IterateActionBreak
)

type ObjectItem = SliceItem

// Object is an ordered key/value record parsed from the project manifest.
// Comments attached to a key are stored under a sibling "<key>_comment"
// entry so that iteration and serialization can treat them uniformly.
type Object struct {
	*SliceMap
}

func NewObjectItem(key string, value interface{}) ObjectItem {
	return ObjectItem{key: key, value: value}
}

func NewObject() Object {
	return Object{SliceMap: NewSliceMap()}
}

func NewObjectWithData(items []ObjectItem) Object {
	o := NewObject()
	for _, item := range items {
		o.Set(item.key, item.value)
	}
	return o
}

func (o Object) toMarshalJSONData() map[string]interface{} {
	dataMap := make(map[string]interface{})
	o.Foreach(func(key string, val interface{}) IterateActionType {
		if obj, ok := val.(Object); ok {
			dataMap[key] = obj.toMarshalJSONData()
		} else {
			dataMap[key] = val
		}
		return IterateActionContinue
	})
	return dataMap
}

func (o Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.toMarshalJSONData())
}

func (o Object) IsEmpty() bool {
	if o.SliceMap == nil || o.items == nil {
		return true
	}
	return o.Size() == 0
}

func (o Object) GetObject(key string) Object {
	if value, ok := o.Get(key); ok {
		if obj, ok := value.(Object); ok {
			return obj
		}
	}
	return NewObject()
}

func (o Object) GetString(key string) string {
	if value, ok := o.Get(key); ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}

func (o Object) GetInt(key string) int {
	if value, ok := o.Get(key); ok {
		switch value.(type) {
		case int, int8, int16, int32, int64:
			return int(reflect.ValueOf(value).Int())
		}
	}
	return 0
}

type ApplyFunc = func(key string, val interface{}) IterateActionType
type FilterFunc = func(key string, val interface{}) bool

func (o Object) Foreach(apply ApplyFunc) {
	if o.IsEmpty() {
		return
	}
	for _, item := range o.Items() {
		if item.value == nil {
			continue
		}
		if apply(item.key.(string), item.value) == IterateActionBreak {
			break
		}
	}
}

func (o Object) ForeachWithFilter(apply ApplyFunc, filter FilterFunc) {
	if o.IsEmpty() {
		return
	}
	for _, item := range o.Items() {
		key := item.key.(string)
		val := item.value
		if val == nil {
			continue
		}
		if filter(key, val) {
			if apply(key, val) == IterateActionBreak {
				break
			}
		}
	}
}
