package repositories

// Tables resolves WordPress table names for a configured prefix.
type Tables struct {
	Prefix string
}

func NewTables(prefix string) Tables {
	if prefix == "" {
		prefix = "wp_"
	}
	return Tables{Prefix: prefix}
}

func (t Tables) Posts() string             { return t.Prefix + "posts" }
func (t Tables) PostMeta() string          { return t.Prefix + "postmeta" }
func (t Tables) Users() string             { return t.Prefix + "users" }
func (t Tables) UserMeta() string          { return t.Prefix + "usermeta" }
func (t Tables) Comments() string          { return t.Prefix + "comments" }
func (t Tables) CommentMeta() string       { return t.Prefix + "commentmeta" }
func (t Tables) TermRelationships() string { return t.Prefix + "term_relationships" }
func (t Tables) TermTaxonomy() string      { return t.Prefix + "term_taxonomy" }
func (t Tables) Terms() string             { return t.Prefix + "terms" }
func (t Tables) Options() string           { return t.Prefix + "options" }
func (t Tables) CustomerLookup() string    { return t.Prefix + "wc_customer_lookup" }
func (t Tables) Orders() string            { return t.Prefix + "wc_orders" }
func (t Tables) OrdersMeta() string        { return t.Prefix + "wc_orders_meta" }
func (t Tables) OrderAddresses() string    { return t.Prefix + "wc_order_addresses" }
func (t Tables) OrderOperational() string  { return t.Prefix + "wc_order_operational_data" }
func (t Tables) OrderItems() string        { return t.Prefix + "woocommerce_order_items" }
func (t Tables) OrderItemMeta() string     { return t.Prefix + "woocommerce_order_itemmeta" }
func (t Tables) ProductMetaLookup() string { return t.Prefix + "wc_product_meta_lookup" }

// CapabilitiesKey is the usermeta key holding a user's serialized roles.
func (t Tables) CapabilitiesKey() string { return t.Prefix + "capabilities" }
