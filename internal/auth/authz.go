package auth

// CanModify reports whether a subject may change a resource: admins may
// change anything, everyone else only what they own. Anonymous subjects
// (empty id) may change nothing.
func CanModify(subjectID string, admin bool, ownerID string) bool {
	if admin {
		return true
	}
	return subjectID != "" && subjectID == ownerID
}
