package pbxparser

type mapEntry struct {
	value interface{}
	idx   int
}

// SliceItem is a single key/value pair held by a SliceMap.
type SliceItem struct {
	key   interface{}
	value interface{}
}

// SliceMap is a map that preserves insertion order. The Xcode project
// manifest is order-sensitive: records must serialize back in the order
// they were read, with appended records at the end.
type SliceMap struct {
	index map[interface{}]*mapEntry
	items []*SliceItem
}

func NewSliceMap() *SliceMap {
	return &SliceMap{
		index: make(map[interface{}]*mapEntry),
		items: make([]*SliceItem, 0),
	}
}

func (m *SliceMap) ForceGet(key interface{}) interface{} {
	if e, found := m.index[key]; found {
		return e.value
	}
	return nil
}

func (m *SliceMap) Get(key interface{}) (interface{}, bool) {
	if e, found := m.index[key]; found {
		return e.value, true
	}
	return nil, false
}

// Set updates the value in place when the key exists, otherwise appends.
func (m *SliceMap) Set(key, value interface{}) {
	if old, found := m.index[key]; found {
		old.value = value
		m.items[old.idx].value = value
		return
	}
	m.items = append(m.items, &SliceItem{key: key, value: value})
	m.index[key] = &mapEntry{value: value, idx: len(m.items) - 1}
}

func (m *SliceMap) Has(key interface{}) bool {
	_, found := m.index[key]
	return found
}

func (m *SliceMap) Delete(key interface{}) {
	old, found := m.index[key]
	if !found {
		return
	}
	m.items = append(m.items[:old.idx], m.items[old.idx+1:]...)
	delete(m.index, key)
	for i := old.idx; i < len(m.items); i++ {
		m.index[m.items[i].key].idx = i
	}
}

func (m *SliceMap) Size() int {
	return len(m.items)
}

func (m *SliceMap) Items() []*SliceItem {
	return m.items
}
