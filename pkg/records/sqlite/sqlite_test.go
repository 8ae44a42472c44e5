package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/records"
	"github.com/papercomputeco/chatvault/pkg/records/sqlite"
	testutils "github.com/papercomputeco/chatvault/pkg/utils/test"
)

var _ = Describe("Driver", func() {
	It("creates a file database", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "records.db")

		d, err := sqlite.NewDriver(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("persists records across reopen", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "records.db")

		d, err := sqlite.NewDriver(ctx, dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Save(ctx, testutils.NewTestRecord("a1", "c1", "claude"))).To(Succeed())
		Expect(d.Close()).To(Succeed())

		d, err = sqlite.NewDriver(ctx, dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()

		got, err := d.Latest(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ArchiveID).To(Equal("a1"))
	})

	Describe("records.Store behavior", func() {
		testutils.DescribeRecordStore(func() records.Store {
			d, err := sqlite.NewDriver(context.Background(), ":memory:")
			Expect(err).NotTo(HaveOccurred())
			return d
		})
	})
})
