package workflow

// Role represents an organizational role that participates in the
// approval workflow
type Role string

const (
	RoleStaff               Role = "STAFF"
	RoleSupervisor          Role = "SUPERVISOR"
	RoleCorporate           Role = "CORPORATE"
	RoleRegionalCoordinator Role = "REGIONAL_COORDINATOR"
	RoleVehicleOfficer      Role = "VEHICLE_OFFICER"
	RoleAdmin               Role = "ADMIN"
)

// Permission is a named action a role may perform
type Permission string

const (
	PermSubmitRequest    Permission = "submit_request"
	PermApproveStage     Permission = "approve_stage"
	PermDeclineRequest   Permission = "decline_request"
	PermAssignVehicle    Permission = "assign_vehicle"
	PermManageIdentities Permission = "manage_identities"
	PermManageFacilities Permission = "manage_facilities"
	PermViewAllRequests  Permission = "view_all_requests"
	PermExportReports    Permission = "export_reports"
)

var validRoles = map[Role]bool{
	RoleStaff:               true,
	RoleSupervisor:          true,
	RoleCorporate:           true,
	RoleRegionalCoordinator: true,
	RoleVehicleOfficer:      true,
	RoleAdmin:               true,
}

// rolePermissions is the static role-permission table. It is populated once
// at package initialization and never mutated at runtime.
var rolePermissions = map[Role]map[Permission]bool{
	RoleStaff: {
		PermSubmitRequest: true,
	},
	RoleSupervisor: {
		PermSubmitRequest:  true,
		PermApproveStage:   true,
		PermDeclineRequest: true,
	},
	RoleCorporate: {
		PermApproveStage:   true,
		PermDeclineRequest: true,
		PermExportReports:  true,
	},
	RoleRegionalCoordinator: {
		PermApproveStage:   true,
		PermDeclineRequest: true,
	},
	RoleVehicleOfficer: {
		PermApproveStage:   true,
		PermDeclineRequest: true,
		PermAssignVehicle:  true,
	},
	RoleAdmin: {
		PermSubmitRequest:    true,
		PermManageIdentities: true,
		PermManageFacilities: true,
		PermViewAllRequests:  true,
		PermExportReports:    true,
	},
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a known workflow role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// HasPermission returns true if the role is allowed to perform the action
func HasPermission(role Role, perm Permission) bool {
	return rolePermissions[role][perm]
}

// Permissions returns the set of actions the role may perform
func Permissions(role Role) []Permission {
	perms := make([]Permission, 0, len(rolePermissions[role]))
	for p := range rolePermissions[role] {
		perms = append(perms, p)
	}
	return perms
}
