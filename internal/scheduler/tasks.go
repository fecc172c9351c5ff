package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskVehicleReviewEmail = "vehicles.review_email"

type VehicleReviewEmailPayload struct {
	VehicleID   string `json:"vehicleId"`
	DriverEmail string `json:"driverEmail"`
	Vehicle     string `json:"vehicle"`
	PlateNumber string `json:"plateNumber"`
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
}

func NewVehicleReviewEmailTask(payload VehicleReviewEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVehicleReviewEmail, data), nil
}

func ParseVehicleReviewEmailPayload(task *asynq.Task) (VehicleReviewEmailPayload, error) {
	var payload VehicleReviewEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VehicleReviewEmailPayload{}, err
	}
	return payload, nil
}
