package orders

import (
	"time"
)

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

const (
	CategoryPending   = "pending"
	CategoryCompleted = "completed"
)

// Production teams an item can be routed to. The caps team is special:
// its assignments carry metal and assembly tracking instead of a single
// team tracking record.
const (
	TeamGlass       = "glass"
	TeamCaps        = "caps"
	TeamBoxes       = "boxes"
	TeamPumps       = "pumps"
	TeamPrinting    = "printing"
	TeamCoating     = "coating"
	TeamFoiling     = "foiling"
	TeamFrosting    = "frosting"
	TeamAccessories = "accessories"
)

// Order is a customer dispatch order. Field names follow the upstream wire
// format: items travel under the item_ids key and identities under _id.
// Status is derived exclusively from item completion (see DeriveStatus);
// nothing else writes it once the order is under cache management.
type Order struct {
	ID             string    `json:"_id" bson:"_id"`
	Number         string    `json:"order_number" bson:"order_number"`
	DispatcherName string    `json:"dispatcher_name,omitempty" bson:"dispatcher_name,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	Status         string    `json:"order_status" bson:"order_status"`
	CreatedBy      string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	Items          []Item    `json:"item_ids" bson:"item_ids"`
	CreatedAt      time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Item is one line of an order, routed to one or more production teams.
type Item struct {
	ID              string                  `json:"_id" bson:"_id"`
	Name            string                  `json:"name,omitempty" bson:"name,omitempty"`
	TeamAssignments map[string][]Assignment `json:"team_assignments,omitempty" bson:"team_assignments,omitempty"`
}

// Assignment is a unit of work for one team on one item. Quantity is the
// target; the tracking records hold running completion tallies. Caps
// assignments use MetalTracking, plus AssemblyTracking when the process
// string calls for assembly; every other team uses TeamTracking.
type Assignment struct {
	ID               string    `json:"_id" bson:"_id"`
	Quantity         int       `json:"quantity" bson:"quantity"`
	Process          string    `json:"process,omitempty" bson:"process,omitempty"`
	TeamTracking     *Tracking `json:"team_tracking,omitempty" bson:"team_tracking,omitempty"`
	MetalTracking    *Tracking `json:"metal_tracking,omitempty" bson:"metal_tracking,omitempty"`
	AssemblyTracking *Tracking `json:"assembly_tracking,omitempty" bson:"assembly_tracking,omitempty"`
}

// Tracking is the running tally of completed quantity for an assignment.
type Tracking struct {
	TotalCompletedQty int              `json:"total_completed_qty" bson:"total_completed_qty"`
	CompletedEntries  []CompletedEntry `json:"completed_entries,omitempty" bson:"completed_entries,omitempty"`
	Status            string           `json:"status,omitempty" bson:"status,omitempty"`
}

// CompletedEntry is one recorded progress increment from a production team.
type CompletedEntry struct {
	Quantity  int       `json:"qty_completed" bson:"qty_completed"`
	Operator  string    `json:"operator,omitempty" bson:"operator,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

func (o *Order) GetID() string {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

// FindItem returns the item with the given id, or nil.
func (o *Order) FindItem(id string) *Item {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

func findByNumber(list []*Order, number string) int {
	for i, o := range list {
		if o != nil && o.Number == number {
			return i
		}
	}
	return -1
}

func removeAt(list []*Order, idx int) []*Order {
	out := make([]*Order, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}
