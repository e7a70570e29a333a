package auth

import "strings"

type StaffPermission string

const (
	PermOrders   StaffPermission = "orders"
	PermKitchen  StaffPermission = "kitchen"
	PermPayments StaffPermission = "payments"
	PermTables   StaffPermission = "tables"
	PermReports  StaffPermission = "reports"
	PermSettings StaffPermission = "settings"
)

// apiPermissionMap lists the permissions that open each route. Holding any
// one of them is enough.
var apiPermissionMap = map[string][]StaffPermission{
	"/api/admin/orders":   {PermOrders},
	"/api/admin/kitchen":  {PermKitchen},
	"/api/admin/payments": {PermPayments},
	"/api/admin/tables":   {PermTables},
	"/api/admin/reports":  {PermReports},
	"/api/admin/settings": {PermSettings},
	"/api/admin/ws":       {PermKitchen},

	// Floor staff may show a guest the bill without taking payment.
	"POST /api/admin/payments/preview": {PermPayments, PermOrders},
}

// GetPermissionForAPI returns the permissions guarding path, picking the
// longest matching prefix and preferring method-specific entries on ties.
// A nil result means any authenticated user may call it.
func GetPermissionForAPI(path string, method string) []StaffPermission {
	method = strings.ToUpper(strings.TrimSpace(method))

	var bestPath string
	var bestPerms []StaffPermission
	var bestMethodSpecific bool

	for key, perms := range apiPermissionMap {
		keyPath := key
		methodSpecific := false
		if keyMethod, rest, ok := strings.Cut(key, " "); ok {
			if method == "" || method != strings.ToUpper(keyMethod) {
				continue
			}
			keyPath = strings.TrimSpace(rest)
			methodSpecific = true
		}

		if !strings.HasPrefix(path, keyPath) {
			continue
		}

		if bestPerms == nil || len(keyPath) > len(bestPath) || (len(keyPath) == len(bestPath) && methodSpecific && !bestMethodSpecific) {
			bestPath = keyPath
			bestMethodSpecific = methodSpecific
			bestPerms = append([]StaffPermission(nil), perms...)
		}
	}

	return bestPerms
}

func HasPermission(granted []string, perm StaffPermission) bool {
	for _, p := range granted {
		if p == string(perm) {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether granted includes at least one of required.
func HasAnyPermission(granted []string, required []StaffPermission) bool {
	for _, perm := range required {
		if HasPermission(granted, perm) {
			return true
		}
	}
	return false
}
