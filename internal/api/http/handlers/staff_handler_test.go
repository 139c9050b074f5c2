package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestStaffResponseMapping(t *testing.T) {
	dept := "dept-1"
	team := "team-1"
	resp := staffResponse(&domain.StaffMember{
		ID:           "staff-1",
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         domain.StaffRoleTeamLead,
		DepartmentID: &dept,
		TeamID:       &team,
		Active:       true,
	})

	if resp.ID != "staff-1" || resp.Role != domain.StaffRoleTeamLead || !resp.Active {
		t.Errorf("unexpected mapping: %+v", resp)
	}
	if resp.DepartmentID == nil || *resp.DepartmentID != dept {
		t.Errorf("department = %v, want %s", resp.DepartmentID, dept)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "secret") || strings.Contains(string(raw), "password") {
		t.Errorf("wire shape must not leak credentials: %s", raw)
	}
}

func TestTeamResponseMapping(t *testing.T) {
	resp := teamResponse(&domain.Team{
		ID:           "team-1",
		DepartmentID: "dept-1",
		Name:         "N1",
		Description:  "Primeiro nível",
		IsActive:     false,
	})
	if resp.DepartmentID != "dept-1" || resp.IsActive {
		t.Errorf("unexpected mapping: %+v", resp)
	}
}
