package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Category is a checkpoint's project: either a label id or NoCategory.
// It encodes as a JSON number, or null for NoCategory.
type Category struct {
	id  LabelID
	set bool
}

// NoCategory marks a checkpoint that is not filed under any project
var NoCategory = Category{}

// SomeCategory returns the category for label id
func SomeCategory(id LabelID) Category {
	return Category{id: id, set: true}
}

// Get returns the label id and whether one is set
func (c Category) Get() (LabelID, bool) {
	return c.id, c.set
}

func (c Category) String() string {
	if !c.set {
		return "none"
	}
	return strconv.FormatUint(uint64(c.id), 10)
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(c.id)
}

func (c *Category) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = NoCategory
		return nil
	}
	var id LabelID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*c = SomeCategory(id)
	return nil
}
