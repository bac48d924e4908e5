package utils

// Permission levels
const (
	DeveloperPermission = "developer"
	StaffPermission     = "staff"
	GuestPermission     = "guest"
)

// contains checks if a slice of strings contains an element.
func contains(slice []string, item string) bool {
	for _, a := range slice {
		if a == item {
			return true
		}
	}
	return false
}

// CheckPermission returns the highest permission level of a member.
func CheckPermission(userRoleIDs []string, userID string, staffRoleIDs, developerUserIDs []string) string {
	if contains(developerUserIDs, userID) {
		return DeveloperPermission
	}

	for _, roleID := range userRoleIDs {
		if contains(staffRoleIDs, roleID) {
			return StaffPermission
		}
	}

	return GuestPermission
}

// IsStaff reports whether a member may use the notice controls. With no staff
// roles configured every member is allowed.
func IsStaff(userRoleIDs []string, userID string, staffRoleIDs, developerUserIDs []string) bool {
	if len(staffRoleIDs) == 0 {
		return true
	}
	return CheckPermission(userRoleIDs, userID, staffRoleIDs, developerUserIDs) != GuestPermission
}
