package trip

import (
	"strings"

	"github.com/tripsetu/backend/internal/domain/protocol"
)

// classificationRule binds a keyword set to a service type. Rules are
// evaluated in order; the first match wins.
type classificationRule struct {
	serviceType ServiceType
	keywords    []string
}

// classificationRules is the documented precedence list for order
// classification at confirm time. International flights must be tested
// before domestic ones because both match "flight"; the final fallback is
// domestic flights, a deliberate heuristic for payloads that carry no
// usable category text.
var classificationRules = []classificationRule{
	{ServiceTypeInternationalFlight, []string{"international", "intl"}},
	{ServiceTypeHotel, []string{"hotel", "stay", "room", "accommodation", "hospitality"}},
	{ServiceTypeBus, []string{"bus", "coach"}},
	{ServiceTypeTrain, []string{"train", "rail"}},
	{ServiceTypeFlight, []string{"flight", "air"}},
}

// ClassifyOrder maps an order onto the provider service type that should
// handle it, using keyword matching over the first item's category id and
// descriptor text.
func ClassifyOrder(order *protocol.Order) ServiceType {
	item := order.FirstItem()
	if item == nil {
		return ServiceTypeFlight
	}
	return ClassifyItem(item)
}

// ClassifyItem classifies a single order item
func ClassifyItem(item *protocol.OrderItem) ServiceType {
	var parts []string
	parts = append(parts, item.CategoryID)
	if item.Descriptor != nil {
		parts = append(parts, item.Descriptor.Name, item.Descriptor.Code, item.Descriptor.ShortDesc)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.serviceType
			}
		}
	}
	return ServiceTypeFlight
}
