package dto

import (
	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/service"
)

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Status      *string `json:"status"`
	PicLapangan *string `json:"pic_lapangan"`
}

func (r CreateTaskRequest) ToInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Status:      r.Status,
		PicLapangan: r.PicLapangan,
	}
}

// UpdateTaskRequest tells an omitted field from an explicit null.
type UpdateTaskRequest struct {
	Title       task.Optional[string] `json:"title"`
	Description task.Optional[string] `json:"description"`
	Status      task.Optional[string] `json:"status"`
	DueDate     task.Optional[string] `json:"due_date"`
	PicLapangan task.Optional[string] `json:"pic_lapangan"`
}

func (r UpdateTaskRequest) ToInput() service.UpdateTaskInput {
	return service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		DueDate:     r.DueDate,
		PicLapangan: r.PicLapangan,
	}
}

type ImportResponse struct {
	Success  bool `json:"success"`
	Inserted int  `json:"inserted"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}
