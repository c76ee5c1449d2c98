package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("bookings")

		collection.Fields.Add(
			&core.TextField{
				Name:     "reference",
				Required: true,
			},
			&core.TextField{
				Name:     "user_id",
				Required: true,
			},
			&core.TextField{
				Name: "user_name",
			},
			&core.TextField{
				Name: "user_email",
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "confirmed", "cancelled", "completed"},
			},
			&core.NumberField{
				Name: "total_price",
				Min:  types.Pointer(0.0),
			},
			&core.DateField{
				Name: "check_in",
			},
			&core.DateField{
				Name: "check_out",
			},
			&core.TextField{
				Name: "nationality",
			},
			&core.NumberField{
				Name:    "guests",
				OnlyInt: true,
				Min:     types.Pointer(1.0),
				Max:     types.Pointer(10.0),
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_bookings_reference", true, "reference", "")
		collection.AddIndex("idx_bookings_user_id", false, "user_id", "")
		collection.AddIndex("idx_bookings_status", false, "status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
