package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Ferry expansion: bookings become a tagged record, lodging stays the
// default for rows created before the kind field existed.
func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}

		collection.Fields.Add(
			&core.SelectField{
				Name:      "kind",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"ferry", "lodging"},
			},
			&core.JSONField{
				Name: "ferry_details",
			},
			&core.TextField{
				Name: "special_requests",
			},
		)

		collection.AddIndex("idx_bookings_kind", false, "kind", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}

		collection.Fields.RemoveByName("kind")
		collection.Fields.RemoveByName("ferry_details")
		collection.Fields.RemoveByName("special_requests")
		collection.RemoveIndex("idx_bookings_kind")

		return app.Save(collection)
	})
}
