package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func migrationFixture(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys["sql/migrations/"+name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestLoadMigrationsFromFS_OrdersByVersion(t *testing.T) {
	t.Parallel()

	fsys := migrationFixture(map[string]string{
		"0002_create_outbox_messages.up.sql":   "CREATE TABLE outbox_messages (id TEXT);",
		"0002_create_outbox_messages.down.sql": "DROP TABLE IF EXISTS outbox_messages;",
		"0001_create_orders.up.sql":            "CREATE TABLE orders (id TEXT);",
		"0001_create_orders.down.sql":          "DROP TABLE IF EXISTS orders;",
	})

	migrations, err := loadMigrationsFromFS(fsys)
	if err != nil {
		t.Fatalf("loadMigrationsFromFS failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}

	if migrations[0].Version != 1 || migrations[0].Name != "create_orders" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "create_outbox_messages" {
		t.Fatalf("unexpected second migration: %+v", migrations[1])
	}
	if !strings.Contains(migrations[0].UpSQL, "CREATE TABLE orders") {
		t.Fatalf("up script lost: %q", migrations[0].UpSQL)
	}
}

func TestLoadMigrationsFromFS_RejectsBrokenSets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name: "missing down pair",
			files: map[string]string{
				"0001_create_orders.up.sql": "CREATE TABLE orders (id TEXT);",
			},
			wantErr: "both up and down",
		},
		{
			name: "unparseable file name",
			files: map[string]string{
				"create_orders.sql": "SELECT 1;",
			},
			wantErr: "invalid migration file name",
		},
		{
			name: "empty script body",
			files: map[string]string{
				"0001_create_orders.up.sql":   "   \n",
				"0001_create_orders.down.sql": "DROP TABLE IF EXISTS orders;",
			},
			wantErr: "migration file is empty",
		},
		{
			name: "same version different names",
			files: map[string]string{
				"0001_create_orders.up.sql":   "CREATE TABLE orders (id TEXT);",
				"0001_create_outbox.down.sql": "DROP TABLE IF EXISTS outbox_messages;",
			},
			wantErr: "name mismatch",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := loadMigrationsFromFS(migrationFixture(tc.files))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

// Встроенный набор миграций должен описывать полную схему сервиса.
func TestEmbeddedMigrationsDescribeServiceSchema(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("embedded migrations failed to load: %v", err)
	}

	allUpSQL := ""
	for i, m := range migrations {
		if i > 0 && migrations[i-1].Version >= m.Version {
			t.Fatalf("migrations must be ordered by version: %+v", migrations)
		}
		allUpSQL += m.UpSQL + "\n"
	}

	for _, table := range []string{"orders", "outbox_messages", "idempotency_keys"} {
		if !strings.Contains(allUpSQL, table) {
			t.Errorf("embedded migrations do not create table %s", table)
		}
	}
	if !strings.Contains(allUpSQL, "expires_at") {
		t.Error("idempotency_keys must carry the expires_at column for cleanup")
	}
}
