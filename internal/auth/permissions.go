package auth

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Role names.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Permission names used by the router.
const (
	PermRecordRead  = "record:read"
	PermRecordWrite = "record:write"
	PermReportView  = "report:view"
	PermAIUse       = "ai:use"
	PermUserView    = "user:view"
	PermUserManage  = "user:manage"
)

// Permissions maps role -> []permission
type Permissions map[string][]string

type permissionsFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// DefaultPermissions is used when no permissions file is present.
func DefaultPermissions() Permissions {
	member := []string{PermRecordRead, PermRecordWrite, PermReportView, PermAIUse}
	admin := append(append([]string{}, member...), PermUserView, PermUserManage)
	return Permissions{
		RoleUser:  member,
		RoleAdmin: admin,
	}
}

// LoadPermissions loads a permissions.yml file and returns a role->permissions map.
func LoadPermissions(path string) (Permissions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf permissionsFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, err
	}
	return Permissions(pf.Roles), nil
}

// LoadPermissionsOrDefault falls back to DefaultPermissions when path does
// not exist. Parse errors are still returned.
func LoadPermissionsOrDefault(path string) (Permissions, bool, error) {
	perms, err := LoadPermissions(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPermissions(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return perms, true, nil
}
