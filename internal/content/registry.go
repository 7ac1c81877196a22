// Package content serves the named content tables as generic rows (JSON
// objects with named columns), with every operation decided by the row
// authorization policies.
package content

// ColumnKind tells the store how to scan and marshal a column.
type ColumnKind int

const (
	ColText ColumnKind = iota
	ColBool
	ColTime
	ColUUID
)

// Column is one client-writable domain column of a content table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Table describes one content table served over the row API. Every table
// carries id, is_published, created_at, and updated_at; owned tables also
// carry a nullable owner_id set to the creating identity.
type Table struct {
	Name    string
	Owned   bool
	Columns []Column
}

// WritableColumn reports whether clients may set the named column on insert
// or update. owner_id is handled separately by the authorization flow.
func (t Table) WritableColumn(name string) bool {
	if name == "is_published" {
		return true
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

var tables = []Table{
	{
		Name:  "sermons",
		Owned: true,
		Columns: []Column{
			{Name: "title", Kind: ColText},
			{Name: "speaker", Kind: ColText},
			{Name: "scripture", Kind: ColText},
			{Name: "media_url", Kind: ColText},
			{Name: "delivered_on", Kind: ColTime},
		},
	},
	{
		Name:  "events",
		Owned: true,
		Columns: []Column{
			{Name: "title", Kind: ColText},
			{Name: "location", Kind: ColText},
			{Name: "description", Kind: ColText},
			{Name: "starts_at", Kind: ColTime},
			{Name: "ends_at", Kind: ColTime},
		},
	},
	{
		Name:  "posts",
		Owned: true,
		Columns: []Column{
			{Name: "title", Kind: ColText},
			{Name: "body", Kind: ColText},
			{Name: "category_id", Kind: ColUUID},
		},
	},
	{
		// Categories have no owner concept: non-admin writes collapse to deny.
		Name:  "categories",
		Owned: false,
		Columns: []Column{
			{Name: "name", Kind: ColText},
			{Name: "slug", Kind: ColText},
		},
	},
}

// Tables returns the registered content tables.
func Tables() []Table {
	return tables
}

// Lookup returns the table descriptor for name.
func Lookup(name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
