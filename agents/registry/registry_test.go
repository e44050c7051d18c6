// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medmesh/medmesh/a2a"
)

func handle(t *testing.T, a *Agent, text string) *a2a.Message {
	t.Helper()
	msg := a2a.NewUserMessage(a2a.NewTextPart(text))
	task, err := a2a.NewTask(msg)
	require.NoError(t, err)

	reply, err := a.Handle(context.Background(), msg, task)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, task.ID, reply.TaskID)
	return reply
}

func TestRegistration(t *testing.T) {
	a := New()

	reply := handle(t, a, "register patient\nName: Alice Smith\nEmail: alice@example.com\nPhone: 555-0101")
	assert.Equal(t, "Patient registered successfully!", reply.TextContent())

	data := reply.DataContent()
	require.NotNil(t, data)
	assert.Equal(t, "registered", data["status"])
	assert.Equal(t, "Alice Smith", data["name"])
	assert.Equal(t, "MR000001", data["medical_record_number"])
	assert.NotEmpty(t, data["patient_id"])

	// Record numbers are sequential.
	second := handle(t, a, "register patient\nName: Bob Jones\nEmail: bob@example.com\nPhone: 555-0102")
	assert.Equal(t, "MR000002", second.DataContent()["medical_record_number"])
}

func TestRegistrationMissingFields(t *testing.T) {
	a := New()
	reply := handle(t, a, "register patient\nName: Alice Smith")
	assert.Contains(t, reply.TextContent(), "Please provide patient name, email, and phone")
	assert.Nil(t, reply.DataContent())
}

func TestLookupByEmail(t *testing.T) {
	a := New()
	handle(t, a, "register patient\nName: Alice Smith\nEmail: alice@example.com\nPhone: 555-0101")

	reply := handle(t, a, "lookup patient in: alice@example.com")
	assert.Equal(t, "Patient found!", reply.TextContent())

	data := reply.DataContent()
	require.NotNil(t, data)
	assert.Equal(t, "Alice Smith", data["name"])
	assert.Equal(t, "alice@example.com", data["email"])
}

func TestLookupByMRN(t *testing.T) {
	a := New()
	registered := handle(t, a, "register patient\nName: Alice Smith\nEmail: alice@example.com\nPhone: 555-0101")
	mrn := registered.DataContent()["medical_record_number"].(string)

	reply := handle(t, a, fmt.Sprintf("find patient %s.", mrn))
	assert.Equal(t, "Patient found!", reply.TextContent())
	assert.Equal(t, mrn, reply.DataContent()["medical_record_number"])
}

func TestLookupNotFound(t *testing.T) {
	a := New()
	reply := handle(t, a, "lookup patient in: nobody@example.com")
	assert.Equal(t, "Patient not found in our records.", reply.TextContent())
}

func TestLookupWithoutIdentifier(t *testing.T) {
	a := New()
	reply := handle(t, a, "lookup patient record")
	assert.Contains(t, reply.TextContent(), "email address or medical record number")
}

func TestUnrecognizedRequest(t *testing.T) {
	a := New()
	reply := handle(t, a, "what is the weather")
	assert.Contains(t, reply.TextContent(), "patient registration and lookup")
}

func TestSkills(t *testing.T) {
	a := New()
	skills := a.Skills()
	require.Len(t, skills, 2)
	for _, skill := range skills {
		assert.NoError(t, skill.Validate())
	}
	assert.Equal(t, "patient-registration", skills[0].ID)
	assert.Equal(t, "patient-lookup", skills[1].ID)
}
