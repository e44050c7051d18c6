// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the patient registration agent: registering
// new patients and looking up existing records by email or medical record
// number.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/medmesh/medmesh/a2a"
)

// Patient is one registered patient record.
type Patient struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	MedicalRecordNumber string `json:"medical_record_number"`
}

// Agent is the patient registry capability handler. All state is confined
// to the instance; it is safe for concurrent requests.
type Agent struct {
	mu       sync.Mutex
	patients map[string]*Patient
	byEmail  map[string]string
	byMRN    map[string]string
	nextMRN  int
}

// New creates an empty patient registry.
func New() *Agent {
	return &Agent{
		patients: make(map[string]*Patient),
		byEmail:  make(map[string]string),
		byMRN:    make(map[string]string),
		nextMRN:  1,
	}
}

// Skills returns the registry's capability metadata.
func (a *Agent) Skills() []a2a.AgentSkill {
	return []a2a.AgentSkill{
		{
			ID:          "patient-registration",
			Name:        "Patient Registration",
			Description: "Register new patients and validate existing patient information",
			Tags:        []string{"registration", "patient", "verification"},
			Examples: []string{
				"Register a new patient with name John Doe, email john@email.com, phone 123-456-7890",
				"Verify patient information for medical record number MR123456",
			},
		},
		{
			ID:          "patient-lookup",
			Name:        "Patient Lookup",
			Description: "Look up existing patient records and information",
			Tags:        []string{"lookup", "patient", "records"},
			Examples: []string{
				"Find patient by email: john@email.com",
				"Look up patient by medical record number: MR123456",
			},
		},
	}
}

// Handle routes an inbound message on keywords. Request understanding is
// deliberately minimal: the protocol layer never constrains how handlers
// interpret text, and this one is a placeholder for a real parser.
func (a *Agent) Handle(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error) {
	text := msg.TextContent()
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "register"):
		return a.handleRegistration(task, text)
	case strings.Contains(lower, "lookup"), strings.Contains(lower, "find"):
		return a.handleLookup(task, text)
	default:
		return a2a.NewAgentMessage(task.ID, task.ContextID,
			a2a.NewTextPart("I can help you with patient registration and lookup. Please specify what you'd like to do."),
		), nil
	}
}

// handleRegistration parses "Name:", "Email:" and "Phone:" lines from the
// request text and creates a patient record.
func (a *Agent) handleRegistration(task *a2a.Task, text string) (*a2a.Message, error) {
	fields := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		for _, key := range []string{"name", "email", "phone"} {
			idx := strings.Index(strings.ToLower(line), key+":")
			if idx < 0 {
				continue
			}
			value := strings.TrimSpace(line[idx+len(key)+1:])
			if value != "" {
				fields[key] = value
			}
		}
	}

	if fields["name"] == "" || fields["email"] == "" || fields["phone"] == "" {
		return a2a.NewAgentMessage(task.ID, task.ContextID,
			a2a.NewTextPart("Please provide patient name, email, and phone number for registration."),
		), nil
	}

	patient := a.register(fields["name"], fields["email"], fields["phone"])

	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Patient registered successfully!"),
		a2a.NewDataPart(map[string]any{
			"patient_id":            patient.ID,
			"medical_record_number": patient.MedicalRecordNumber,
			"name":                  patient.Name,
			"status":                "registered",
		}),
	), nil
}

func (a *Agent) register(name, email, phone string) *Patient {
	a.mu.Lock()
	defer a.mu.Unlock()

	patient := &Patient{
		ID:                  uuid.NewString(),
		Name:                name,
		Email:               email,
		Phone:               phone,
		MedicalRecordNumber: fmt.Sprintf("MR%06d", a.nextMRN),
	}
	a.nextMRN++
	a.patients[patient.ID] = patient
	a.byEmail[patient.Email] = patient.ID
	a.byMRN[patient.MedicalRecordNumber] = patient.ID
	return patient
}

// handleLookup resolves a patient by email address or medical record
// number found in the request text.
func (a *Agent) handleLookup(task *a2a.Task, text string) (*a2a.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var patientID string
	switch {
	case strings.Contains(text, "@"):
		patientID = a.byEmail[extractEmail(text)]
	case strings.Contains(text, "MR"):
		patientID = a.byMRN[extractMRN(text)]
	default:
		return a2a.NewAgentMessage(task.ID, task.ContextID,
			a2a.NewTextPart("Please provide either an email address or medical record number for lookup."),
		), nil
	}

	patient, ok := a.patients[patientID]
	if !ok {
		return a2a.NewAgentMessage(task.ID, task.ContextID,
			a2a.NewTextPart("Patient not found in our records."),
		), nil
	}

	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Patient found!"),
		a2a.NewDataPart(map[string]any{
			"id":                    patient.ID,
			"name":                  patient.Name,
			"email":                 patient.Email,
			"phone":                 patient.Phone,
			"medical_record_number": patient.MedicalRecordNumber,
		}),
	), nil
}

func extractEmail(text string) string {
	for _, word := range strings.Fields(text) {
		if strings.Contains(word, "@") {
			return strings.Trim(word, ".,;:")
		}
	}
	return ""
}

func extractMRN(text string) string {
	idx := strings.Index(text, "MR")
	if idx < 0 {
		return ""
	}
	mrn := text[idx:]
	if end := strings.IndexAny(mrn, " \t\n.,;:"); end >= 0 {
		mrn = mrn[:end]
	}
	return mrn
}
