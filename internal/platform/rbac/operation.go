// Package rbac decides whether a caller may perform an operation on an organization or
// on a personally owned resource.
package rbac

// Operation names an action guarded by the role policy.
type Operation string

const (
	OpOrgRead          Operation = "org.read"
	OpOrgUpdate        Operation = "org.update"
	OpOrgDelete        Operation = "org.delete"
	OpOrgMembersManage Operation = "org.members.manage"
	OpContractRead     Operation = "contract.read"
	OpContractCreate   Operation = "contract.create"
	OpContractUpdate   Operation = "contract.update"
	OpContractDelete   Operation = "contract.delete"

	// Personal account operations. These are decided by identity, never by role.
	OpAccountRead   Operation = "account.read"
	OpAccountUpdate Operation = "account.update"
	OpAccountDelete Operation = "account.delete"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonAllowed          Reason = "allowed"
	ReasonNotAMember       Reason = "not_a_member"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonPolicyError      Reason = "policy_error"
)
