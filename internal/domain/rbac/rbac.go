// Пакет rbac — логика определения эффективной роли пользователя бота.
// Лестница ролей: user < admin < owner. Роль выводится из реестра
// администраторов и идентификатора владельца; роль можно только
// повысить, не понизить.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleUser:  1,
	RoleAdmin: 2,
	RoleOwner: 3,
}

// Resolve вычисляет роль пользователя: владелец — всегда owner,
// присутствие в реестре администраторов даёт admin, иначе user.
func Resolve(userID, ownerID int64, isAdmin bool) string {
	switch {
	case userID == ownerID:
		return RoleOwner
	case isAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// AtLeast проверяет, что роль не ниже требуемой.
func AtLeast(role, required string) bool {
	return roleWeight[role] >= roleWeight[required]
}
