package models

import (
	"testing"
	"time"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"supervisor role", RoleSupervisor, true},
		{"pilot role", RolePilot, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "invalid", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_CanPerform(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	supervisor := &User{Role: RoleSupervisor}
	pilot := &User{Role: RolePilot}
	viewer := &User{Role: RoleViewer}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		// Admin - everything
		{"admin can manage users", admin, "manage_users", true},
		{"admin can manage fleet", admin, "manage_fleet", true},
		{"admin can deploy vehicle", admin, "deploy_vehicle", true},
		{"admin can cancel deployment", admin, "cancel_deployment", true},

		// Supervisor - everything except user management
		{"supervisor cannot manage users", supervisor, "manage_users", false},
		{"supervisor can manage fleet", supervisor, "manage_fleet", true},
		{"supervisor can deploy vehicle", supervisor, "deploy_vehicle", true},
		{"supervisor can cancel deployment", supervisor, "cancel_deployment", true},

		// Pilot - day-to-day operations only
		{"pilot can deploy vehicle", pilot, "deploy_vehicle", true},
		{"pilot can return vehicle", pilot, "return_vehicle", true},
		{"pilot can record trip", pilot, "record_trip", true},
		{"pilot can amend trip", pilot, "amend_trip", true},
		{"pilot can close shift", pilot, "close_shift", true},
		{"pilot can view analytics", pilot, "view_analytics", true},
		{"pilot cannot cancel deployment", pilot, "cancel_deployment", false},
		{"pilot cannot manage fleet", pilot, "manage_fleet", false},
		{"pilot cannot manage users", pilot, "manage_users", false},

		// Viewer - read-only
		{"viewer can view vehicles", viewer, "view_vehicles", true},
		{"viewer can view deployments", viewer, "view_deployments", true},
		{"viewer can view analytics", viewer, "view_analytics", true},
		{"viewer cannot deploy vehicle", viewer, "deploy_vehicle", false},
		{"viewer cannot record trip", viewer, "record_trip", false},
		{"viewer cannot manage users", viewer, "manage_users", false},

		// Unknown role denies everything
		{"unknown role denied", &User{Role: "ghost"}, "view_vehicles", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.CanPerform(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s CanPerform(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}

func TestUser_StructFields(t *testing.T) {
	now := time.Now()
	user := &User{
		Username:     "ops.kiran",
		Email:        "kiran@evzone.local",
		PasswordHash: "hashedpassword",
		Role:         RoleSupervisor,
		EmployeeID:   "EMP-42",
		FirstName:    "Kiran",
		LastName:     "Shetty",
		IsActive:     true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if user.Username != "ops.kiran" {
		t.Errorf("Expected Username to be 'ops.kiran', got %s", user.Username)
	}
	if user.EmployeeID != "EMP-42" {
		t.Errorf("Expected EmployeeID to be 'EMP-42', got %s", user.EmployeeID)
	}
	if user.Role != RoleSupervisor {
		t.Errorf("Expected Role to be RoleSupervisor, got %s", user.Role)
	}
	if !user.IsActive {
		t.Errorf("Expected IsActive to be true, got %v", user.IsActive)
	}
	if user.LastLogin == nil {
		t.Errorf("Expected LastLogin to be set, got nil")
	}
}
