package store

import "strings"

// StaffListID is the settings document holding the staff roster.
const StaffListID = "staff_list"

func namespace(appID string) string {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		appID = "default-app-id"
	}
	return "artifacts/" + appID + "/public/data"
}

// InspectionsCollection is where inspection records live for appID. The layout
// must stay stable across releases or existing records become invisible.
func InspectionsCollection(appID string) string {
	return namespace(appID) + "/inspections"
}

// SettingsCollection holds singleton settings documents such as the roster.
func SettingsCollection(appID string) string {
	return namespace(appID) + "/settings"
}
