package entity

// Authority is the role of the signed-in user.
type Authority string

const (
	AuthoritySysAdmin     Authority = "SYS_ADMIN"
	AuthorityTenantAdmin  Authority = "TENANT_ADMIN"
	AuthorityCustomerUser Authority = "CUSTOMER_USER"
)

// Viewer describes the user on whose behalf aliases are resolved.
type Viewer struct {
	Authority  Authority `json:"authority" yaml:"authority" mapstructure:"authority"`
	TenantID   string    `json:"tenantId" yaml:"tenantId" mapstructure:"tenant_id"`
	CustomerID string    `json:"customerId,omitempty" yaml:"customerId,omitempty" mapstructure:"customer_id"`
	UserID     string    `json:"userId,omitempty" yaml:"userId,omitempty" mapstructure:"user_id"`
}

// Substitute replaces alias placeholders in ref with the viewer's own
// entities. CURRENT_CUSTOMER keeps its configured id unless the viewer is a
// customer user. Other refs are returned unchanged.
func (v Viewer) Substitute(ref Ref) Ref {
	switch ref.EntityType {
	case TypeCurrentTenant:
		return Ref{EntityType: TypeTenant, ID: v.TenantID}
	case TypeCurrentCustomer:
		id := ref.ID
		if v.Authority == AuthorityCustomerUser {
			id = v.CustomerID
		}
		return Ref{EntityType: TypeCustomer, ID: id}
	case TypeCurrentUser:
		return Ref{EntityType: TypeUser, ID: v.UserID}
	}
	return ref
}

// OwnScope returns the single entity a viewer may list for type t, if the
// viewer is confined to one: a tenant admin sees only its tenant, a customer
// user only its customer.
func (v Viewer) OwnScope(t EntityType) (Ref, bool) {
	switch {
	case t == TypeTenant && v.Authority == AuthorityTenantAdmin:
		return Ref{EntityType: TypeTenant, ID: v.TenantID}, true
	case t == TypeCustomer && v.Authority == AuthorityCustomerUser:
		return Ref{EntityType: TypeCustomer, ID: v.CustomerID}, true
	}
	return Ref{}, false
}
