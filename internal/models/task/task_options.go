package task

import (
	"bytes"
	"encoding/json"
	"time"
)

// Optional tracks whether a field was supplied and, if so, its value.
// A supplied nil Value means the field is cleared.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON marks the field as supplied; a JSON null clears it.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON writes the value or null. Pair it with `omitzero` to leave
// unset fields out entirely.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IsZero reports an unset field.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Patch is a partial update; only fields with Set are written.
type Patch struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[Status]
	DueDate     Optional[time.Time]
	PicLapangan Optional[string]
}

func (p Patch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set && !p.DueDate.Set && !p.PicLapangan.Set
}

type PatchOption func(*Patch)

func NewPatch(options ...PatchOption) Patch {
	var p Patch
	for _, opt := range options {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

func WithTitle(title string) PatchOption {
	return func(p *Patch) {
		p.Title = Some(title)
	}
}

func WithDescription(description *string) PatchOption {
	return func(p *Patch) {
		p.Description = Optional[string]{Set: true, Value: description}
	}
}

func WithStatus(status Status) PatchOption {
	return func(p *Patch) {
		p.Status = Some(status)
	}
}

func WithDueDate(due *time.Time) PatchOption {
	return func(p *Patch) {
		p.DueDate = Optional[time.Time]{Set: true, Value: due}
	}
}

func WithPicLapangan(pic *string) PatchOption {
	return func(p *Patch) {
		p.PicLapangan = Optional[string]{Set: true, Value: pic}
	}
}
