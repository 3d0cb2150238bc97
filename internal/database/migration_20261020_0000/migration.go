package migration_20261020_0000

import (
	"fmt"

	. "github.com/leonardo-io/leonardo/internal/database/migrations"
)

// deviceReferences are the tables whose device_id must name an existing device.
var deviceReferences = []string{"location_records", "detection_events"}

func init() {
	migrationId := "20261020-0000"
	var actions []MigrationAction
	for _, table := range deviceReferences {
		constraint := fmt.Sprintf("fk_%s_device", table)
		actions = append(actions,
			ExecActionIf(
				fmt.Sprintf(`ALTER TABLE "%s" ADD CONSTRAINT "%s" FOREIGN KEY ("device_id") REFERENCES "devices" ("device_id")`, table, constraint),
				fmt.Sprintf(`ALTER TABLE "%s" DROP CONSTRAINT IF EXISTS "%s"`, table, constraint),
				"postgres",
			),
			// sqlite cannot add a constraint to an existing table
			ExecActionIf(
				fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS "%[1]s_insert" BEFORE INSERT ON "%[2]s"
					WHEN NOT EXISTS (SELECT 1 FROM "devices" WHERE "device_id" = NEW."device_id")
					BEGIN SELECT RAISE(ABORT, 'FOREIGN KEY constraint failed'); END`, constraint, table),
				fmt.Sprintf(`DROP TRIGGER IF EXISTS "%s_insert"`, constraint),
				"sqlite",
			),
			ExecActionIf(
				fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS "%[1]s_update" BEFORE UPDATE OF "device_id" ON "%[2]s"
					WHEN NOT EXISTS (SELECT 1 FROM "devices" WHERE "device_id" = NEW."device_id")
					BEGIN SELECT RAISE(ABORT, 'FOREIGN KEY constraint failed'); END`, constraint, table),
				fmt.Sprintf(`DROP TRIGGER IF EXISTS "%s_update"`, constraint),
				"sqlite",
			),
		)
	}
	CreateMigrationFromActions(migrationId, actions...)
}
