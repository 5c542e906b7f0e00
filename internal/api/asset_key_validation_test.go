package api

import "testing"

func TestIsValidUserAssetObjectKey(t *testing.T) {
	cases := []struct {
		name   string
		userID uint
		key    string
		want   bool
	}{
		{"own png", 7, "user-assets/7/photo.png", true},
		{"own jpeg", 7, "user-assets/7/photo.jpeg", true},
		{"foreign prefix", 7, "user-assets/8/photo.png", false},
		{"path traversal", 7, "user-assets/7/../8/photo.png", false},
		{"double slash", 7, "user-assets/7//photo.png", false},
		{"wrong extension", 7, "user-assets/7/payload.exe", false},
		{"empty", 7, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isValidUserAssetObjectKey(tc.userID, tc.key); got != tc.want {
				t.Fatalf("key %q: expected %v got %v", tc.key, tc.want, got)
			}
		})
	}
}
