package models

type Role struct {
	Name string `gorm:"primarykey" json:"name"`

	Permissions []Permission `gorm:"many2many:role_permissions;joinForeignKey:Role;joinReferences:Permission" json:"-"`
}

type Permission struct {
	Name string `gorm:"primarykey" json:"name"`
}

type RolePermission struct {
	Role       string `gorm:"primaryKey" json:"role"`
	Permission string `gorm:"primaryKey" json:"permission"`
}
