// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package booking implements the appointment booking agent: reserving,
// listing, and canceling appointment slots.
package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/medmesh/medmesh/a2a"
)

// Appointment is one reserved slot.
type Appointment struct {
	ID           string `json:"id"`
	PatientID    string `json:"patient_id"`
	DoctorID     string `json:"doctor_id"`
	DatetimeSlot string `json:"datetime_slot"`
	Department   string `json:"department"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitzero"`
}

// Agent is the appointment booking capability handler. All state is
// confined to the instance; it is safe for concurrent requests.
type Agent struct {
	mu           sync.Mutex
	appointments map[string]*Appointment
	order        []string
	nextID       int
}

// New creates an empty appointment book.
func New() *Agent {
	return &Agent{
		appointments: make(map[string]*Appointment),
		nextID:       1,
	}
}

// Skills returns the booking agent's capability metadata.
func (a *Agent) Skills() []a2a.AgentSkill {
	return []a2a.AgentSkill{
		{
			ID:          "book-appointment",
			Name:        "Book Appointment",
			Description: "Book new appointments for patients with available doctors",
			Tags:        []string{"booking", "appointment", "schedule"},
			Examples: []string{
				"Book appointment for patient MR123456 with Dr. Johnson on 2024-01-15 at 10:00",
				"Schedule appointment for john@email.com with cardiology department",
			},
		},
		{
			ID:          "appointment-management",
			Name:        "Appointment Management",
			Description: "View, modify, or cancel existing appointments",
			Tags:        []string{"appointment", "management", "cancel", "modify"},
			Examples: []string{
				"View appointments for patient MR123456",
				"Cancel appointment ID APT123456",
			},
		},
	}
}

// Handle routes an inbound message on keywords.
func (a *Agent) Handle(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error) {
	text := msg.TextContent()
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "book"), strings.Contains(lower, "schedule"):
		return a.handleBooking(task)
	case strings.Contains(lower, "view"), strings.Contains(lower, "list"):
		return a.handleView(task)
	case strings.Contains(lower, "cancel"):
		return a.handleCancellation(task, text)
	default:
		return a2a.NewAgentMessage(task.ID, task.ContextID,
			a2a.NewTextPart("I can help you book appointments, view existing appointments, or cancel appointments. What would you like to do?"),
		), nil
	}
}

// handleBooking reserves a slot. The reference implementation fills in
// placeholder patient and doctor identities; passing the resolved record
// from the registry step into this step is an open design gap inherited
// from the reference workflow.
func (a *Agent) handleBooking(task *a2a.Task) (*a2a.Message, error) {
	a.mu.Lock()
	appointment := &Appointment{
		ID:           fmt.Sprintf("APT%06d", a.nextID),
		PatientID:    "patient_123",
		DoctorID:     "doctor_456",
		DatetimeSlot: "2024-01-15T10:00:00",
		Department:   "Cardiology",
		Status:       "scheduled",
		Notes:        "Regular checkup",
	}
	a.nextID++
	a.appointments[appointment.ID] = appointment
	a.order = append(a.order, appointment.ID)
	a.mu.Unlock()

	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Appointment booked successfully!"),
		a2a.NewDataPart(appointmentData(appointment)),
	), nil
}

func (a *Agent) handleView(task *a2a.Task) (*a2a.Message, error) {
	a.mu.Lock()
	list := make([]any, 0, len(a.order))
	for _, id := range a.order {
		list = append(list, appointmentData(a.appointments[id]))
	}
	a.mu.Unlock()

	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart(fmt.Sprintf("Found %d appointments:", len(list))),
		a2a.NewDataPart(map[string]any{"appointments": list}),
	), nil
}

func (a *Agent) handleCancellation(task *a2a.Task, text string) (*a2a.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, appointment := range a.appointments {
		if strings.Contains(text, id) {
			appointment.Status = "cancelled"
			return a2a.NewAgentMessage(task.ID, task.ContextID,
				a2a.NewTextPart(fmt.Sprintf("Appointment %s has been cancelled.", id)),
			), nil
		}
	}

	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Please provide a valid appointment ID to cancel."),
	), nil
}

func appointmentData(apt *Appointment) map[string]any {
	return map[string]any{
		"id":            apt.ID,
		"patient_id":    apt.PatientID,
		"doctor_id":     apt.DoctorID,
		"datetime_slot": apt.DatetimeSlot,
		"department":    apt.Department,
		"status":        apt.Status,
		"notes":         apt.Notes,
	}
}
