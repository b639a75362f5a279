package task_test

import (
	"encoding/json"
	"testing"

	"wwtpDashboard/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	var body struct {
		Title       task.Optional[string] `json:"title"`
		Description task.Optional[string] `json:"description"`
		DueDate     task.Optional[string] `json:"due_date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Clean filter","description":null}`), &body))

	assert.True(t, body.Title.Set)
	assert.Equal(t, "Clean filter", *body.Title.Value)
	assert.True(t, body.Description.Set)
	assert.Nil(t, body.Description.Value)
	assert.False(t, body.DueDate.Set)
}

func TestOptional_MarshalJSON(t *testing.T) {
	body := struct {
		Title       task.Optional[string] `json:"title,omitzero"`
		Description task.Optional[string] `json:"description,omitzero"`
		DueDate     task.Optional[string] `json:"due_date,omitzero"`
	}{
		Title:       task.Some("Clean filter"),
		Description: task.Null[string](),
	}

	data, err := json.Marshal(body)

	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Clean filter","description":null}`, string(data))
}

func TestPatch_Empty(t *testing.T) {
	assert.True(t, task.NewPatch().Empty())
	assert.False(t, task.NewPatch(task.WithPicLapangan(nil)).Empty())
}

func TestStatus(t *testing.T) {
	assert.True(t, task.StatusInProgress.Valid())
	assert.False(t, task.Status("archived").Valid())
	assert.Equal(t, "in progress", task.StatusInProgress.Display())
	assert.Equal(t, "Selesai", task.StatusDone.Label())
}
