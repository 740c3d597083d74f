package auth

import "testing"

func TestCanModify(t *testing.T) {
	cases := []struct {
		name      string
		subjectID string
		admin     bool
		ownerID   string
		want      bool
	}{
		{"owner", "u1", false, "u1", true},
		{"stranger", "u2", false, "u1", false},
		{"admin over someone else's resource", "u2", true, "u1", true},
		{"anonymous", "", false, "u1", false},
		{"anonymous owner id never matches", "", false, "", false},
	}
	for _, tc := range cases {
		if got := CanModify(tc.subjectID, tc.admin, tc.ownerID); got != tc.want {
			t.Errorf("%s: CanModify(%q, %v, %q) = %v, want %v", tc.name, tc.subjectID, tc.admin, tc.ownerID, got, tc.want)
		}
	}
}
