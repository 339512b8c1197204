// internal/brain/seed.go
package brain

// seedPattern is one built-in synonym. The seed brain ships compiled in
// so the engine answers sensibly even with no artifact on disk; the
// artifact takes precedence where both define a pattern.
type seedPattern struct {
	Pattern string
	Weight  float64
}

// Generic single-concept phrasings carry a lower weight than specific
// multi-word ones so tier-2 token matches rank specific intents first.
var seedBrain = map[string][]seedPattern{
	"remaining_qty": {
		{"remaining quantity", 1.0},
		{"quantity remaining", 1.0},
		{"remaining balance", 0.9},
		{"balance remaining", 0.9},
		{"how many do we have", 1.0},
		{"how many left", 1.0},
		{"how many units", 0.9},
		{"how many in inventory", 1.0},
		{"how many still available", 1.0},
		{"quantity on hand", 1.0},
		{"available inventory", 0.9},
		{"inventory level", 0.9},
		{"stock level", 0.9},
		{"stock count", 0.9},
		{"stock left", 0.9},
		{"current stock", 0.9},
		{"still in stock", 0.9},
		{"units available", 0.9},
		{"units left", 0.9},
		{"pieces left", 0.9},
		{"pieces remaining", 0.9},
		{"availability", 0.7},
		{"quantity", 0.7},
		{"stock", 0.6},
	},
	"dealer_net_price": {
		{"dealer net price", 1.0},
		{"net price", 1.0},
		{"dealer price", 1.0},
		{"unit price", 0.9},
		{"price per unit", 1.0},
		{"what is the price", 1.0},
		{"what is the price of", 1.0},
		{"how much is", 0.9},
		{"what does it cost", 1.0},
		{"cost per item", 0.9},
		{"cost of", 0.8},
		{"price point", 0.9},
		{"pricing for", 0.9},
		{"quote for", 0.8},
		{"quoted price", 0.9},
		{"contract price", 0.9},
		{"going for", 0.7},
		{"price", 0.7},
		{"cost", 0.6},
	},
	"product_family": {
		{"product family", 1.0},
		{"what family is", 1.0},
		{"family of", 0.9},
		{"product type", 0.9},
		{"product line", 0.9},
		{"product category", 0.9},
		{"product series", 0.9},
		{"product classification", 0.9},
		{"what series is", 0.9},
		{"what kind of", 0.8},
		{"what type of", 0.8},
		{"device type", 0.8},
		{"device category", 0.8},
		{"model family", 0.9},
		{"equipment type", 0.8},
		{"item category", 0.8},
		{"family", 0.7},
	},
	"customer": {
		{"who is the customer", 1.0},
		{"customer name", 1.0},
		{"customer account", 0.9},
		{"client account", 0.9},
		{"client name", 0.9},
		{"end user", 0.9},
		{"account holder", 0.9},
		{"deal owner", 0.9},
		{"who owns", 0.8},
		{"belongs to", 0.8},
		{"belongs to whom", 0.9},
		{"assigned to", 0.8},
		{"who bought this", 0.9},
		{"purchased by", 0.9},
		{"purchaser", 0.8},
		{"buyer name", 0.9},
		{"customer", 0.7},
		{"client", 0.6},
	},
	"end_date": {
		{"end date", 1.0},
		{"expiration date", 1.0},
		{"expiry date", 1.0},
		{"date of expiration", 1.0},
		{"when does it expire", 1.0},
		{"expires on", 0.9},
		{"valid until", 0.9},
		{"valid through", 0.9},
		{"good through", 0.9},
		{"good through date", 1.0},
		{"active until", 0.9},
		{"until when", 0.8},
		{"when is it valid until", 1.0},
		{"when does the deal end", 1.0},
		{"termination date", 0.9},
		{"end of validity", 0.9},
		{"closing date", 0.8},
		{"expire", 0.8},
		{"expires", 0.8},
		{"expiration", 0.8},
		{"expiry", 0.8},
	},
	"part_number": {
		{"part number", 1.0},
		{"part no", 0.9},
		{"item number", 0.9},
		{"model number", 0.9},
		{"sku", 0.8},
		{"material number", 0.9},
		{"which part", 0.8},
		{"what part is this", 0.9},
	},
	"deal_id": {
		{"deal id", 1.0},
		{"deal number", 1.0},
		{"quote number", 0.9},
		{"quote id", 0.9},
		{"agreement number", 0.9},
		{"which deal", 0.8},
		{"deal reference", 0.9},
	},
}
