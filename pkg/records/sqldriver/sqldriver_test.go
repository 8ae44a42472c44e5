package sqldriver

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("rebind", func() {
	It("leaves sqlite placeholders alone", func() {
		d := &Driver{Dialect: SQLite}
		Expect(d.rebind("a = ? AND b = ?")).To(Equal("a = ? AND b = ?"))
	})

	It("numbers postgres placeholders", func() {
		d := &Driver{Dialect: Postgres}
		Expect(d.rebind("a = ? AND b = ? LIMIT ?")).To(Equal("a = $1 AND b = $2 LIMIT $3"))
	})
})
