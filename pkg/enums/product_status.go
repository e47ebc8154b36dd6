package enums

// ProductStatus controls storefront visibility. Only active products are listed publicly.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

var productStatuses = []ProductStatus{ProductStatusDraft, ProductStatusActive, ProductStatusArchived}

func (s ProductStatus) String() string { return string(s) }

func (s ProductStatus) IsValid() bool { return member(productStatuses, s) }

func ParseProductStatus(value string) (ProductStatus, error) {
	return parse(productStatuses, value, "product status")
}
