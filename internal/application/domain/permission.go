package domain

// CanReview 审批权限判定，(角色, 申请类型) 的纯函数：
//   - ADMIN 对任意类型均可审批；
//   - ORGANIZATION_MANAGER / ORGANIZATION_MEMBER 仅可审批非 ORGANIZATION
//     类型的申请（组织不自治审）；
//   - 其余角色一律无权限。
//
// 每次详情或调用者身份变化时重新计算，不跨申请缓存。
func CanReview(role Role, t ApplicantType) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleOrganizationManager, RoleOrganizationMember:
		return t != TypeOrganization
	default:
		return false
	}
}
