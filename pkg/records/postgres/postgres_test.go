package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/records"
	"github.com/papercomputeco/chatvault/pkg/records/postgres"
	testutils "github.com/papercomputeco/chatvault/pkg/utils/test"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("CHATVAULT_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("CHATVAULT_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	testutils.DescribeRecordStore(func() records.Store {
		ctx := context.Background()

		d, err := postgres.NewDriver(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())

		// Clean all records before each test for isolation.
		_, err = d.DB.ExecContext(ctx, "DELETE FROM records")
		Expect(err).NotTo(HaveOccurred())
		return d
	})
})
