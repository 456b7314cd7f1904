// internal/handlers/action.go
package handlers

import "net/http"

// Action: вид, выбранный параметром ?action=. Набор закрыт: все значения
// перечислены ниже, и диспетчер обрабатывает каждое в switch.
type Action string

const (
	ActionDashboard  Action = "dashboard"
	ActionProducts   Action = "products"
	ActionStock      Action = "stock"
	ActionUsers      Action = "users"
	ActionOrders     Action = "orders"
	ActionAddProduct Action = "add_product"
	ActionAddStock   Action = "add_stock"
	ActionLogin      Action = "login"
	ActionLogout     Action = "logout"
)

var knownActions = map[string]Action{
	string(ActionDashboard):  ActionDashboard,
	string(ActionProducts):   ActionProducts,
	string(ActionStock):      ActionStock,
	string(ActionUsers):      ActionUsers,
	string(ActionOrders):     ActionOrders,
	string(ActionAddProduct): ActionAddProduct,
	string(ActionAddStock):   ActionAddStock,
	string(ActionLogin):      ActionLogin,
	string(ActionLogout):     ActionLogout,
}

func (a Action) String() string { return string(a) }

// ParseAction распознает идентификатор вида. Регистр значим.
func ParseAction(s string) (Action, bool) {
	a, ok := knownActions[s]
	return a, ok
}

// ResolveAction возвращает вид для значения параметра: пустое или
// неизвестное значение ведет на дашборд.
func ResolveAction(s string) Action {
	if a, ok := ParseAction(s); ok {
		return a
	}
	return ActionDashboard
}

// ActionLabel дает метку action для метрик: только известные значения.
func ActionLabel(r *http.Request) string {
	return ResolveAction(r.URL.Query().Get("action")).String()
}
