// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package roster implements the doctor availability agent: searching the
// doctor roster by specialty and reporting open appointment slots.
package roster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medmesh/medmesh/a2a"
)

// Doctor is one roster entry with its open slots.
type Doctor struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialty      string   `json:"specialty"`
	Department     string   `json:"department"`
	AvailableSlots []string `json:"available_slots"`
}

// specialties recognized by the keyword matcher.
var specialties = []string{"cardiology", "dermatology", "pediatrics", "orthopedics", "emergency"}

// Agent is the doctor roster capability handler. The roster is seeded at
// construction and read-only afterwards, so concurrent requests need no
// locking.
type Agent struct {
	doctors []Doctor
}

// New creates a roster seeded with the reference doctors, each with open
// slots over the next seven days.
func New(now time.Time) *Agent {
	seed := []struct {
		name, specialty, department string
	}{
		{"Dr. Sarah Johnson", "Cardiology", "Heart Center"},
		{"Dr. Michael Chen", "Dermatology", "Skin Care"},
		{"Dr. Emily Rodriguez", "Pediatrics", "Children's Health"},
		{"Dr. David Smith", "Orthopedics", "Bone & Joint"},
		{"Dr. Lisa Wong", "Emergency Medicine", "Emergency Department"},
	}

	doctors := make([]Doctor, 0, len(seed))
	for _, d := range seed {
		var slots []string
		for day := 1; day <= 7; day++ {
			date := now.AddDate(0, 0, day).Format("2006-01-02")
			for _, hour := range []int{9, 10, 11, 14, 15, 16} {
				slots = append(slots, fmt.Sprintf("%sT%02d:00:00", date, hour))
			}
		}
		doctors = append(doctors, Doctor{
			ID:             uuid.NewString(),
			Name:           d.name,
			Specialty:      d.specialty,
			Department:     d.department,
			AvailableSlots: slots,
		})
	}
	return &Agent{doctors: doctors}
}

// Skills returns the roster's capability metadata.
func (a *Agent) Skills() []a2a.AgentSkill {
	return []a2a.AgentSkill{
		{
			ID:          "doctor-search",
			Name:        "Doctor Search",
			Description: "Search for doctors by specialty, department, or name",
			Tags:        []string{"doctor", "search", "specialty", "department"},
			Examples: []string{
				"Find cardiologists available this week",
				"Search for doctors in Emergency Department",
				"Find Dr. Smith's availability",
			},
		},
		{
			ID:          "availability-check",
			Name:        "Availability Check",
			Description: "Check doctor availability for specific dates and times",
			Tags:        []string{"availability", "schedule", "appointment"},
			Examples: []string{
				"Check Dr. Johnson's availability for next Monday",
				"Find available slots in Cardiology for this week",
			},
		},
	}
}

// Handle routes an inbound message on keywords.
func (a *Agent) Handle(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error) {
	lower := strings.ToLower(msg.TextContent())

	switch {
	case strings.Contains(lower, "find"), strings.Contains(lower, "search"):
		return a.handleSearch(task, lower)
	case strings.Contains(lower, "availability"), strings.Contains(lower, "available"):
		return a.handleAvailability(task)
	default:
		return a2a.NewAgentMessage(task.ID, task.ContextID,
			a2a.NewTextPart("I can help you search for doctors or check their availability. What would you like to do?"),
		), nil
	}
}

// handleSearch matches a specialty keyword in the request; with no
// specialty mentioned the whole roster is returned.
func (a *Agent) handleSearch(task *a2a.Task, lower string) (*a2a.Message, error) {
	var specialty string
	for _, s := range specialties {
		if strings.Contains(lower, s) {
			specialty = s
			break
		}
	}

	var matches []map[string]any
	for _, d := range a.doctors {
		if specialty != "" && !strings.Contains(strings.ToLower(d.Specialty), specialty) {
			continue
		}
		matches = append(matches, map[string]any{
			"id":                    d.ID,
			"name":                  d.Name,
			"specialty":             d.Specialty,
			"department":            d.Department,
			"available_slots_count": len(d.AvailableSlots),
		})
	}

	if len(matches) == 0 {
		return a2a.NewAgentMessage(task.ID, task.ContextID,
			a2a.NewTextPart("No doctors found matching your criteria."),
		), nil
	}

	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart(fmt.Sprintf("Found %d doctors matching your criteria:", len(matches))),
		a2a.NewDataPart(map[string]any{"doctors": matches}),
	), nil
}

// handleAvailability reports the next three open slots per doctor.
func (a *Agent) handleAvailability(task *a2a.Task) (*a2a.Message, error) {
	var availability []map[string]any
	for _, d := range a.doctors {
		next := d.AvailableSlots
		if len(next) > 3 {
			next = next[:3]
		}
		availability = append(availability, map[string]any{
			"doctor_id":            d.ID,
			"doctor_name":          d.Name,
			"specialty":            d.Specialty,
			"next_available_slots": next,
		})
	}

	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Here's the current availability:"),
		a2a.NewDataPart(map[string]any{"availability": availability}),
	), nil
}
