//go:build integration

package mongorepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/leadbook/internal/database"
	"github.com/iliyamo/leadbook/internal/repository/mongorepo"
	"github.com/iliyamo/leadbook/internal/testhelpers"
)

func TestMongoStores(t *testing.T) {
	uri := testhelpers.StartMongo(t)
	client, db, err := database.OpenMongo(uri, "leads_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	require.NoError(t, mongorepo.EnsureIndexes(context.Background(), db))
	require.NoError(t, mongorepo.EnsureIndexes(context.Background(), db))

	testhelpers.RunStoreSuite(t, mongorepo.NewUserStore(db), mongorepo.NewLeadStore(db))
}
