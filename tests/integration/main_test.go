package integration

import (
	"context"
	"os"
	"testing"

	"github.com/ferdian3456/virdanthread/tests/integration/setup"
	"github.com/stretchr/testify/require"
)

// startApp boots the containers and the server for one test. Skipped in
// short mode since it needs Docker.
func startApp(t *testing.T) (*setup.TestInfra, *setup.TestApp) {
	if testing.Short() || os.Getenv("SKIP_INTEGRATION") != "" {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()

	infra, err := setup.StartInfra(ctx, t)
	t.Cleanup(func() {
		if infra != nil {
			infra.Terminate(context.Background(), t)
		}
	})
	require.NoError(t, err, "infrastructure should start")

	require.NoError(t, setup.RunMigration(infra.PgURL, t))

	app := setup.SetupTestApp(t, infra)
	setup.TruncateAllTables(t, app.DB, ctx)

	return infra, app
}
